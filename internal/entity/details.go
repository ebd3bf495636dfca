package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/rex-zones-humides/constants"
)

// Details is a typed view over the ten sections of a project record.
// Every field is optional; absent sections are nil.
type Details struct {
	Presentation *PresentationSection
	Objectif     *ObjectifSection
	Description  *DescriptionSection
	Enjeux       *EnjeuxSection
	Typologie    map[string]string
	Directives   map[string]string
	Contexte     *ContexteSection
	Valorisation map[string]string
	Travaux      *TravauxSection
	Documents    *DocumentsSection
}

type PresentationSection struct {
	Titre          string
	Bassin         string
	NomOrganisme   string
	Localisation   string
	AdressePrecise string
	Region         string
}

type ObjectifSection struct {
	Objectifs string
}

type DescriptionSection struct {
	Resume             string
	PublicationRecueil string
}

type EnjeuxSection struct {
	DateDebut string
	DateFin   string
	Enjeux    []string
}

type ContexteSection struct {
	Contexte string
	Autres   string
}

type TravauxSection struct {
	SurfaceTravaux string
}

type DocumentsSection struct {
	PagesExtraire  string
	RecueilComplet string
}

// Details builds the typed view. Scalars of any JSON type are rendered as text.
func (r ProjectRecord) Details() Details {
	var d Details
	if m, ok := r.Section(constants.Presentation); ok {
		d.Presentation = &PresentationSection{
			Titre:          Text(m["Titre"]),
			Bassin:         Text(m["Bassin"]),
			NomOrganisme:   Text(m["Nom de l'organisme"]),
			Localisation:   Text(m["Localisation"]),
			AdressePrecise: Text(m["Adresse précise"]),
			Region:         Text(m["Région"]),
		}
	}
	if m, ok := r.Section(constants.Objectif); ok {
		d.Objectif = &ObjectifSection{Objectifs: Text(m["objectifs"])}
	}
	if m, ok := r.Section(constants.Description); ok {
		d.Description = &DescriptionSection{
			Resume:             Text(m["resume"]),
			PublicationRecueil: Text(m["publication_recueil"]),
		}
	}
	if m, ok := r.Section(constants.Enjeux); ok {
		d.Enjeux = &EnjeuxSection{
			DateDebut: Text(m["date_debut"]),
			DateFin:   Text(m["date_fin"]),
			Enjeux:    textList(m["enjeux"]),
		}
	}
	if m, ok := r.Section(constants.Typologie); ok {
		d.Typologie = textMap(m)
	}
	if m, ok := r.Section(constants.Directives); ok {
		d.Directives = textMap(m)
	}
	if m, ok := r.Section(constants.Contexte); ok {
		d.Contexte = &ContexteSection{Contexte: Text(m["contexte"]), Autres: Text(m["autres"])}
	}
	if m, ok := r.Section(constants.Valorisation); ok {
		d.Valorisation = textMap(m)
	}
	if m, ok := r.Section(constants.Travaux); ok {
		d.Travaux = &TravauxSection{SurfaceTravaux: Text(m["surface_travaux"])}
	}
	if m, ok := r.Section(constants.Documents); ok {
		d.Documents = &DocumentsSection{
			PagesExtraire:  Text(m["pages_extraire"]),
			RecueilComplet: Text(m["recueil_complet"]),
		}
	}
	return d
}

// Text renders a decoded JSON value as a single cell of text.
// Lists are joined with ", "; objects are compact JSON; null is empty.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "oui"
		}
		return "non"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, Text(e))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

func textList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s := Text(e); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	default:
		return nil
	}
}

func textMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = Text(v)
	}
	return out
}
