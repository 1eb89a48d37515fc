package screening

import (
	"sort"
	"strings"
)

// MedicineInfo is one row of the built-in medicine reference table.
type MedicineInfo struct {
	Dosage            string
	Interactions      []string
	SideEffects       []string
	Contraindications []string
}

// medicineReference is a small static lookup keyed by lowercase name. It
// exists to anchor the model's answer with known dosage and interaction
// data; it is not a complete formulary.
var medicineReference = map[string]MedicineInfo{
	"amoxicillin": {
		Dosage:            "250-500mg every 8 hours",
		Interactions:      []string{"warfarin", "methotrexate", "oral contraceptives"},
		SideEffects:       []string{"nausea", "diarrhea", "rash"},
		Contraindications: []string{"penicillin allergy"},
	},
	"ibuprofen": {
		Dosage:            "200-400mg every 4-6 hours, max 3200mg/day",
		Interactions:      []string{"warfarin", "aspirin", "lisinopril", "methotrexate"},
		SideEffects:       []string{"stomach upset", "heartburn", "dizziness"},
		Contraindications: []string{"peptic ulcer disease", "third-trimester pregnancy", "severe renal impairment"},
	},
	"paracetamol": {
		Dosage:            "500mg-1g every 4-6 hours, max 4g/day",
		Interactions:      []string{"warfarin at sustained high doses"},
		SideEffects:       []string{"rare at therapeutic doses", "hepatotoxicity in overdose"},
		Contraindications: []string{"severe hepatic impairment"},
	},
	"metformin": {
		Dosage:            "500mg twice daily with meals, max 2550mg/day",
		Interactions:      []string{"iodinated contrast media", "alcohol"},
		SideEffects:       []string{"gastrointestinal upset", "metallic taste"},
		Contraindications: []string{"severe renal impairment", "metabolic acidosis"},
	},
	"lisinopril": {
		Dosage:            "10-40mg once daily",
		Interactions:      []string{"potassium supplements", "NSAIDs", "lithium"},
		SideEffects:       []string{"dry cough", "dizziness", "hyperkalemia"},
		Contraindications: []string{"pregnancy", "history of angioedema"},
	},
	"warfarin": {
		Dosage:            "2-10mg once daily, adjusted to INR",
		Interactions:      []string{"aspirin", "NSAIDs", "amoxicillin", "ciprofloxacin"},
		SideEffects:       []string{"bleeding", "bruising"},
		Contraindications: []string{"active bleeding", "pregnancy"},
	},
	"aspirin": {
		Dosage:            "75-325mg once daily",
		Interactions:      []string{"warfarin", "ibuprofen", "methotrexate"},
		SideEffects:       []string{"gastric irritation", "bleeding"},
		Contraindications: []string{"children under 16", "active peptic ulcer"},
	},
	"atorvastatin": {
		Dosage:            "10-80mg once daily",
		Interactions:      []string{"clarithromycin", "grapefruit juice", "cyclosporine"},
		SideEffects:       []string{"myalgia", "elevated liver enzymes"},
		Contraindications: []string{"active liver disease", "pregnancy"},
	},
	"omeprazole": {
		Dosage:            "20-40mg once daily",
		Interactions:      []string{"clopidogrel", "methotrexate"},
		SideEffects:       []string{"headache", "abdominal pain"},
		Contraindications: []string{"hypersensitivity to proton pump inhibitors"},
	},
	"ciprofloxacin": {
		Dosage:            "250-750mg every 12 hours",
		Interactions:      []string{"antacids", "warfarin", "theophylline"},
		SideEffects:       []string{"nausea", "tendinitis"},
		Contraindications: []string{"concurrent tizanidine"},
	},
}

// LookupMedicine matches a candidate name against the reference table,
// case-insensitively, by exact key or substring in either direction.
// Substring checks walk the keys in sorted order so ambiguous names
// resolve the same way every call.
func LookupMedicine(name string) (MedicineInfo, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return MedicineInfo{}, false
	}
	if info, ok := medicineReference[needle]; ok {
		return info, true
	}

	keys := make([]string, 0, len(medicineReference))
	for k := range medicineReference {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.Contains(needle, key) || strings.Contains(key, needle) {
			return medicineReference[key], true
		}
	}
	return MedicineInfo{}, false
}

type referenceMatch struct {
	Name string
	Info MedicineInfo
}

// referenceMatches looks up every candidate and keeps the hits, preserving
// candidate order.
func referenceMatches(candidates []string) []referenceMatch {
	matches := make([]referenceMatch, 0, len(candidates))
	for _, name := range candidates {
		if info, ok := LookupMedicine(name); ok {
			matches = append(matches, referenceMatch{Name: name, Info: info})
		}
	}
	return matches
}
