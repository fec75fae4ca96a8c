package i18n

import (
	"embed"
	"encoding/json"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var locales embed.FS

var (
	mu     sync.RWMutex
	bundle *goi18n.Bundle
	once   sync.Once
)

// Init builds the bundle from the embedded locales. Safe to call more than once.
func Init() {
	once.Do(func() {
		b := goi18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("json", json.Unmarshal)
		for _, name := range []string{"locales/active.en.json", "locales/active.fr.json"} {
			b.MustParseMessageFileBytes(mustRead(name), name)
		}
		mu.Lock()
		bundle = b
		mu.Unlock()
	})
}

func mustRead(name string) []byte {
	data, err := locales.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return data
}

// Load merges an extra message file from disk, e.g. a deployment override.
func Load(path string) error {
	Init()
	mu.Lock()
	defer mu.Unlock()
	_, err := bundle.LoadMessageFile(path)
	return err
}

// T localizes messageID for the accept-language style lang. Unknown ids
// come back unchanged.
func T(lang, messageID string, data map[string]interface{}) string {
	Init()
	mu.RLock()
	defer mu.RUnlock()

	loc := goi18n.NewLocalizer(bundle, lang, "en")
	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}
