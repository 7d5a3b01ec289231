// Package search builds SCJN search payloads and models search responses.
//
// Callers describe a query with human labels ("12a", "Primera Sala",
// "Jurisprudencia"); BuildPayload maps them to the backend classifier codes.
package search

// DefaultAppID identifies the public web application to the backend.
const DefaultAppID = "SJFAPP2020"

// Epochs maps epoch labels to backend codes.
var Epochs = map[string]string{
	"12a": "210",
	"11a": "200",
	"10a": "100",
	"9a":  "5",
}

// EpochNames maps epoch labels to their display names.
var EpochNames = map[string]string{
	"12a": "Duodécima Época",
	"11a": "Undécima Época",
	"10a": "Décima Época",
	"9a":  "Novena Época",
}

// Instances maps court instance names to backend codes.
var Instances = map[string]string{
	"Primera Sala":           "1",
	"Segunda Sala":           "2",
	"Pleno":                  "6",
	"Tribunales Colegiados":  "60",
	"Plenos de Circuito":     "7",
	"Tribunales de Circuito": "70",
	"Juzgados de Distrito":   "80",
	"Plenos Regionales":      "50",
}

// DocumentTypes maps document type names to backend codes.
var DocumentTypes = map[string]string{
	"Tesis":          "1",
	"Jurisprudencia": "2",
}

// DefaultEpochs is searched when a filter names no epoch.
var DefaultEpochs = []string{"12a", "11a", "10a", "9a"}

// allInstanceCodes is sent when a filter names no instance.
var allInstanceCodes = []string{"6", "60", "7", "70", "80", "1", "2", "50"}

// EpochCodes converts epoch labels to codes. Unknown labels are assumed to
// already be codes and pass through unchanged.
func EpochCodes(epochs []string) []string {
	return mapCodes(epochs, Epochs)
}

// InstanceCodes converts instance names to codes, passing unknown values through.
func InstanceCodes(instances []string) []string {
	return mapCodes(instances, Instances)
}

// DocumentTypeCode converts a document type name; unknown names map to "1" (Tesis).
func DocumentTypeCode(docType string) string {
	if code, ok := DocumentTypes[docType]; ok {
		return code
	}
	return DocumentTypes["Tesis"]
}

// Labels generates the human-readable search labels sent as lbSearch.
func Labels(epochs, instances []string) []string {
	labels := make([]string, 0, len(epochs)*max(len(instances), 1))
	for _, epoch := range epochs {
		name, ok := EpochNames[epoch]
		if !ok {
			name = epoch
		}
		if len(instances) == 0 {
			labels = append(labels, name+" - Todas las Instancias")
			continue
		}
		for _, instance := range instances {
			labels = append(labels, name+" - "+instance)
		}
	}
	return labels
}

func mapCodes(values []string, table map[string]string) []string {
	codes := make([]string, len(values))
	for i, v := range values {
		if code, ok := table[v]; ok {
			codes[i] = code
		} else {
			codes[i] = v
		}
	}
	return codes
}
