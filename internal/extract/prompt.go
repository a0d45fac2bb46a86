// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"text/template"
)

// systemPromptTmpl is the fixed instruction set sent with every extraction.
// It documents the field mappings the model must apply.
var systemPromptTmpl = template.Must(template.New("extraction").Parse(`You extract search parameters for the Atlas of Living Australia (ALA) API from a user's question about Australian biodiversity.

Respond by calling the {{.ToolName}} tool. Fill:
- params: ALA API parameters (see mappings below)
- unresolved_params: parameter names you could not fill confidently
- clarification_needed: true only if the question cannot be answered without asking the user
- clarification_reason: why clarification is needed (empty otherwise)
- artifact_description: a short description of the expected result

SPECIES
- Put the species exactly as the user wrote it into "q": common name, scientific name, or LSID. Never translate a common name into a scientific name and never split it into separate fields.
  "Show me koala occurrences" -> {"q": "koala"}
  "Records of Phascolarctos cinereus" -> {"q": "Phascolarctos cinereus"}
- Preserve full LSID URLs exactly, never just the UUID part:
  "Distribution of https://biodiversity.org.au/afd/taxa/00017b7e-89b3-4916-9c77-d4fbc74bdef6" -> {"q": "https://biodiversity.org.au/afd/taxa/00017b7e-89b3-4916-9c77-d4fbc74bdef6"}
- Add "scientific_name" to unresolved_params when the species is named only by a common name and the user asks for taxonomy, distribution, counts, or scientific details.

TEMPORAL (always extract a temporal parameter when the question has one)
{{range .Temporal}}- "{{.Phrase}}" -> {{.Param}}
{{end}}
SPATIAL
- States go into fq as "state:<full name>". Normalize abbreviations:
{{range .States}}  {{.Abbrev}} -> {{.Name}}
{{end}}- Near a city: set lat, lon and radius (km, default 10):
{{range .Cities}}  {{.Name}}: lat {{.Lat}}, lon {{.Lon}}
{{end}}
TAXONOMIC RANKS
- "family Macropodidae" -> {"family": "Macropodidae"}; likewise kingdom, phylum, class, order, genus.

FACETS (breakdowns)
- "by state", "in each state", "breakdown by", "top N", "per year", "which months" -> "facets" list, e.g. ["state"], ["year"], ["month"], ["basis_of_record"]; "top N" sets "flimit": N.
- A single total ("how many ... in Queensland") is NOT a facet: use fq only.

BASIS OF RECORD
{{range .Basis}}- "{{.Phrase}}" -> fq "basis_of_record:{{.Value}}"
{{end}}
MONTHS AND SEASONS (southern hemisphere)
{{range .Seasons}}- "{{.Phrase}}" -> {{.Param}}
{{end}}
OTHER
- "with photos" / "with images" -> "has_images": true
- "with coordinates" / "mapped" -> "has_coordinates": true
- "show N records" -> "pageSize": N
- A bare occurrence record ID (a UUID that is not part of an LSID URL) -> "uuid": "<id>"
- "including subspecies" / "with child taxa" -> "include_children": true; "with synonyms" -> "include_synonyms": true
`))

type promptMapping struct {
	Phrase string
	Param  string
}

type stateAbbrev struct {
	Abbrev string
	Name   string
}

type city struct {
	Name     string
	Lat, Lon float64
}

type basisMapping struct {
	Phrase string
	Value  string
}

type promptData struct {
	ToolName string
	Temporal []promptMapping
	States   []stateAbbrev
	Cities   []city
	Basis    []basisMapping
	Seasons  []promptMapping
}

var defaultPromptData = promptData{
	ToolName: toolName,
	Temporal: []promptMapping{
		{"in 2021", `{"year": "2021"}`},
		{"before 2018", `{"year": "<2018"}`},
		{"after 2020", `{"year": "2020+"}`},
		{"since 2015", `{"year": "2015+"}`},
		{"post-2010", `{"year": "2010+"}`},
		{"between 2010 and 2020", `{"year": "2010,2020"}`},
		{"during the 1990s", `{"year": "1990,1999"}`},
		{"since March 2022", `{"startdate": "2022-03-01"}`},
		{"before 1 June 1990", `{"enddate": "1990-05-31"}`},
	},
	States: []stateAbbrev{
		{"NSW", "New South Wales"},
		{"QLD", "Queensland"},
		{"VIC", "Victoria"},
		{"TAS", "Tasmania"},
		{"SA", "South Australia"},
		{"WA", "Western Australia"},
		{"NT", "Northern Territory"},
		{"ACT", "Australian Capital Territory"},
	},
	Cities: []city{
		{"Sydney", -33.8688, 151.2093},
		{"Melbourne", -37.8136, 144.9631},
		{"Brisbane", -27.4698, 153.0251},
		{"Perth", -31.9505, 115.8605},
		{"Adelaide", -34.9285, 138.6007},
		{"Hobart", -42.8821, 147.3272},
		{"Darwin", -12.4634, 130.8456},
		{"Canberra", -35.2809, 149.1300},
		{"Cairns", -16.9186, 145.7781},
	},
	Basis: []basisMapping{
		{"specimens", "PreservedSpecimen"},
		{"sightings / observations", "HumanObservation"},
		{"camera traps / sensors", "MachineObservation"},
		{"fossils", "FossilSpecimen"},
		{"living collections", "LivingSpecimen"},
	},
	Seasons: []promptMapping{
		{"in January", `{"month": "1"}`},
		{"summer", `{"fq": ["month:(12 OR 1 OR 2)"]}`},
		{"autumn", `{"fq": ["month:(3 OR 4 OR 5)"]}`},
		{"winter", `{"fq": ["month:(6 OR 7 OR 8)"]}`},
		{"spring", `{"fq": ["month:(9 OR 10 OR 11)"]}`},
		{"during breeding season", `{"fq": ["month:(9 OR 10 OR 11 OR 12)"]}`},
	},
}

// renderSystemPrompt executes the instruction template.
func renderSystemPrompt() (string, error) {
	var buf bytes.Buffer
	if err := systemPromptTmpl.Execute(&buf, defaultPromptData); err != nil {
		return "", err
	}
	return buf.String(), nil
}
