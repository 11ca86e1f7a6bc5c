// Package i18n picks the page language and translates UI strings.
package i18n

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supported = []language.Tag{
	language.English,
	language.French,
}

var matcher = language.NewMatcher(supported)

var catalog = map[language.Tag]map[string]string{
	language.English: {
		"app.title":             "Timada Market",
		"nav.market":            "Market",
		"nav.create":            "Sell a product",
		"index.welcome":         "Welcome to the market.",
		"market.search.label":   "Search products",
		"market.search.hint":    "Type a product name and press Enter",
		"market.results.for":    "Results for",
		"market.results.empty":  "No product matches your search.",
		"market.results.browse": "Latest products",
		"market.results.more":   "Next page",
		"market.results.prev":   "Previous page",
		"create.title":          "Sell a product",
		"create.name":           "Product name",
		"create.submit":         "Create",
		"status.checking":       "Checking your product…",
		"status.ready":          "Your product is ready.",
		"status.failed":         "Your product was rejected:",
		"error.not_found":       "Page not found.",
		"error.internal":        "Something went wrong.",
		"error.bad_request":     "Invalid request.",
		"error.validation.name": "Name must be between 3 and 25 characters.",
	},
	language.French: {
		"app.title":             "Timada Marché",
		"nav.market":            "Marché",
		"nav.create":            "Vendre un produit",
		"index.welcome":         "Bienvenue sur le marché.",
		"market.search.label":   "Rechercher des produits",
		"market.search.hint":    "Saisissez un nom de produit puis Entrée",
		"market.results.for":    "Résultats pour",
		"market.results.empty":  "Aucun produit ne correspond à votre recherche.",
		"market.results.browse": "Derniers produits",
		"market.results.more":   "Page suivante",
		"market.results.prev":   "Page précédente",
		"create.title":          "Vendre un produit",
		"create.name":           "Nom du produit",
		"create.submit":         "Créer",
		"status.checking":       "Vérification de votre produit…",
		"status.ready":          "Votre produit est prêt.",
		"status.failed":         "Votre produit a été refusé :",
		"error.not_found":       "Page introuvable.",
		"error.internal":        "Une erreur est survenue.",
		"error.bad_request":     "Requête invalide.",
		"error.validation.name": "Le nom doit contenir entre 3 et 25 caractères.",
	},
}

func init() {
	for tag, msgs := range catalog {
		for key, msg := range msgs {
			if err := message.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
}

// Negotiate picks the best supported language from an explicit choice
// (query parameter) and then the Accept-Language header.
func Negotiate(explicit, acceptLanguage string) language.Tag {
	var prefs []language.Tag
	if explicit != "" {
		if t, err := language.Parse(explicit); err == nil {
			prefs = append(prefs, t)
		}
	}
	if acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
			prefs = append(prefs, tags...)
		}
	}
	if len(prefs) == 0 {
		return language.English
	}
	_, idx, _ := matcher.Match(prefs...)
	return supported[idx]
}

// FromRequest negotiates the language of r using ?lang= then Accept-Language.
func FromRequest(r *http.Request) language.Tag {
	return Negotiate(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
}

// Translator renders catalog keys for one language.
type Translator struct {
	Tag     language.Tag
	printer *message.Printer
}

func New(tag language.Tag) *Translator {
	return &Translator{Tag: tag, printer: message.NewPrinter(tag)}
}

// T returns the translation of key, or key itself when it is unknown.
func (t *Translator) T(key string) string {
	return t.printer.Sprintf(key)
}

// Lang is the BCP 47 code for the html lang attribute.
func (t *Translator) Lang() string {
	base, _ := t.Tag.Base()
	return base.String()
}
