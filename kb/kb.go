// Package kb loads the static institutional knowledge base consulted for
// the greeting, the prompt context block, and the entity mention table.
package kb

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/careplus-labs/voice-relay/entity"
)

// Department is one clinical department with its head practitioner.
type Department struct {
	Name     string `json:"name"`
	Head     string `json:"head"`
	Location string `json:"location"`
}

// HospitalInfo holds general facility details.
type HospitalInfo struct {
	Name          string            `json:"name"`
	Address       string            `json:"address"`
	VisitingHours map[string]string `json:"visiting_hours"`
}

// InsurancePolicies holds billing and coverage details.
type InsurancePolicies struct {
	AcceptedProviders []string `json:"accepted_providers"`
	CoPayPolicy       string   `json:"co_pay_policy"`
}

// Appointments holds scheduling rules.
type Appointments struct {
	CancellationPolicy string   `json:"cancellation_policy"`
	WhatToBring        []string `json:"what_to_bring"`
}

// Greetings holds the per-mode greeting lines delivered at session start.
type Greetings struct {
	Default   string `json:"default"`
	Returning string `json:"returning"`
}

// KnowledgeBase is the static domain data, loaded once and read-only for
// the life of the process.
type KnowledgeBase struct {
	HospitalInfo HospitalInfo      `json:"hospital_info"`
	Departments  []Department      `json:"departments"`
	Insurance    InsurancePolicies `json:"insurance_policies"`
	Appointments Appointments      `json:"appointments"`
	Greetings    Greetings         `json:"greetings"`
}

const defaultGreeting = "Thank you for calling HealthCare Plus. How can I help you today?"

// Load reads the knowledge base JSON from path. A missing file is not
// fatal: the relay still runs, with an empty KB and the default greeting.
func Load(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &KnowledgeBase{}, nil
		}
		return nil, fmt.Errorf("could not read knowledge base at %s: %w", path, err)
	}

	kb := &KnowledgeBase{}
	if err := json.Unmarshal(data, kb); err != nil {
		return nil, fmt.Errorf("could not parse knowledge base at %s: %w", path, err)
	}
	return kb, nil
}

// Greeting returns the greeting line for a session mode ("default" or
// "returning"), falling back to the built-in line when the KB has none.
func (kb *KnowledgeBase) Greeting(mode string) string {
	switch mode {
	case "returning":
		if kb.Greetings.Returning != "" {
			return kb.Greetings.Returning
		}
	default:
		if kb.Greetings.Default != "" {
			return kb.Greetings.Default
		}
	}
	return defaultGreeting
}

// DepartmentNames returns the closed set of department names, used by the
// shaper's service-listing rule.
func (kb *KnowledgeBase) DepartmentNames() []string {
	names := make([]string, 0, len(kb.Departments))
	for _, d := range kb.Departments {
		names = append(names, d.Name)
	}
	return names
}

// specialistTitles maps a department name to the specialist title callers
// actually say, which doubles as the category label in canonical forms.
var specialistTitles = map[string]string{
	"Dermatology":      "Dermatologist",
	"Cardiology":       "Cardiologist",
	"Orthopedics":      "Orthopedist",
	"Pediatrics":       "Pediatrician",
	"Neurology":        "Neurologist",
	"Physiotherapy":    "Physiotherapist",
	"Radiology":        "Radiologist",
	"Gynecology":       "Gynecologist",
	"General Medicine": "General Physician",
}

// EntityTable derives the mention table consumed by the entity resolver:
// for each department, both the department name and the specialist title
// act as keywords mapping to the head practitioner.
func (kb *KnowledgeBase) EntityTable() []entity.Mention {
	var table []entity.Mention
	for _, d := range kb.Departments {
		if d.Head == "" {
			continue
		}
		label := specialistTitles[d.Name]
		if label == "" {
			label = d.Name
		}
		table = append(table, entity.Mention{
			Keyword:       strings.ToLower(label),
			CanonicalName: d.Head,
			CategoryLabel: label,
		})
		if !strings.EqualFold(label, d.Name) {
			table = append(table, entity.Mention{
				Keyword:       strings.ToLower(d.Name),
				CanonicalName: d.Head,
				CategoryLabel: label,
			})
		}
	}
	return table
}

// ContextString renders the KB as the context block appended to the system
// prompt. An empty KB renders to an empty string.
func (kb *KnowledgeBase) ContextString() string {
	if kb.HospitalInfo.Name == "" && len(kb.Departments) == 0 {
		return ""
	}

	var parts []string
	parts = append(parts, "## INSTITUTIONAL KNOWLEDGE BASE")

	parts = append(parts, fmt.Sprintf("### General Info\nName: %s\nAddress: %s",
		kb.HospitalInfo.Name, kb.HospitalInfo.Address))
	if len(kb.HospitalInfo.VisitingHours) > 0 {
		parts = append(parts, "Visiting Hours:")
		for ward, hours := range kb.HospitalInfo.VisitingHours {
			parts = append(parts, fmt.Sprintf("- %s: %s", titleWard(ward), hours))
		}
	}

	if len(kb.Departments) > 0 {
		parts = append(parts, "\n### Departments")
		for _, d := range kb.Departments {
			parts = append(parts, fmt.Sprintf("- %s (Head: %s, Loc: %s)", d.Name, d.Head, d.Location))
		}
	}

	if len(kb.Insurance.AcceptedProviders) > 0 || kb.Insurance.CoPayPolicy != "" {
		parts = append(parts, "\n### Insurance & Billing")
		parts = append(parts, "Accepted Providers: "+strings.Join(kb.Insurance.AcceptedProviders, ", "))
		parts = append(parts, "Policy: "+kb.Insurance.CoPayPolicy)
	}

	if kb.Appointments.CancellationPolicy != "" || len(kb.Appointments.WhatToBring) > 0 {
		parts = append(parts, "\n### Appointment Rules")
		parts = append(parts, "Cancellation: "+kb.Appointments.CancellationPolicy)
		parts = append(parts, "Items to Bring: "+strings.Join(kb.Appointments.WhatToBring, ", "))
	}

	return strings.Join(parts, "\n")
}

func titleWard(ward string) string {
	words := strings.Split(strings.ReplaceAll(ward, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
