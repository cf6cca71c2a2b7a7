package section

import "strings"

// Form input names are built from paths:
//
//	<section>.<field>                   scalar field
//	<listPath>[]                        list item ids, in DOM order
//	<listPath>[<itemID>].<field>        field of a list item
//	<tagsPath>[]                        existing tags, in order
//	<tagsPath>[new]                     comma separated tags typed by the user

func FieldPath(prefix, name string) string {
	return prefix + "." + name
}

func OrderKey(listPath string) string {
	return listPath + "[]"
}

func ItemPath(listPath, id string) string {
	return listPath + "[" + id + "]"
}

func TagsKey(tagsPath string) string {
	return tagsPath + "[]"
}

func NewTagKey(tagsPath string) string {
	return tagsPath + "[new]"
}

// DOMID turns a path into something safe for an element id attribute.
func DOMID(path string) string {
	r := strings.NewReplacer(".", "-", "[", "_", "]", "")
	return "f-" + r.Replace(path)
}
