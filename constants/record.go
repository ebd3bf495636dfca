package constants

// Keys of the project list returned by the list prompt.
const (
	ListKey      = "Liste"
	ListTitle    = "Titre"
	ListStart    = "PageDebut"
	ListEnd      = "PageFin"
	DefaultTitle = "Projet %d"
)

// Reserved metadata keys attached to every extracted project record.
const (
	MetaProjectTitle = "_project_title"
	MetaPageStart    = "_page_debut"
	MetaPageEnd      = "_page_fin"
)

// ReservedKeys lists the metadata keys in export order.
var ReservedKeys = []string{MetaProjectTitle, MetaPageStart, MetaPageEnd}

// Section is a top-level group of the project detail schema.
type Section string

const (
	Presentation Section = "Presentation"
	Objectif     Section = "Objectif"
	Description  Section = "Description"
	Enjeux       Section = "Enjeux"
	Typologie    Section = "Typologie"
	Directives   Section = "Directives"
	Contexte     Section = "Contexte"
	Valorisation Section = "Valorisation"
	Travaux      Section = "Travaux"
	Documents    Section = "Documents"
)

var allSections = []Section{
	Presentation,
	Objectif,
	Description,
	Enjeux,
	Typologie,
	Directives,
	Contexte,
	Valorisation,
	Travaux,
	Documents,
}

// Sections returns the detail schema sections in display order.
func Sections() []Section {
	out := make([]Section, len(allSections))
	copy(out, allSections)
	return out
}

// IsReserved reports whether key is one of the metadata keys.
func IsReserved(key string) bool {
	for _, k := range ReservedKeys {
		if k == key {
			return true
		}
	}
	return false
}
