package workflow

import (
	"bytes"
	"fmt"
	"text/template"
)

var classifyPrompt = template.Must(template.New("classify").Parse(
	`You are a botany expert. Decide whether the described image shows a plant.
Respond strictly with a JSON object containing one field:
- is_plant: true if the image shows a plant, false otherwise

Image description: {{.Description}}
`))

var judgePrompt = template.Must(template.New("judge").Parse(
	`You are a botany expert. Assess the health of the plant using the image description and the user's notes.
Respond strictly with a JSON object containing:
- score: plant health score from 0 (dead) to 5 (healthy)
- disease: the identified disease, or an empty string if none
- advice: treatment or prevention advice

Image description: {{.Description}}
User notes: {{.UserText}}
`))

type promptData struct {
	Description string
	UserText    string
}

func renderPrompt(t *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}
