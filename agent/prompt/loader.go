package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/patient.txt
	patientRaw string

	//go:embed template/doctor.txt
	doctorRaw string

	//go:embed template/sqlgen.txt
	sqlgenRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Patient string
	Doctor  string
	SQLGen  string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Patient: strings.TrimSpace(patientRaw),
		Doctor:  strings.TrimSpace(doctorRaw),
		SQLGen:  strings.TrimSpace(sqlgenRaw),
	}
}

// RenderSQLGen fills the SQL generation template. The caller supplies
// today's date; the model never infers it.
func (p PromptSet) RenderSQLGen(tableInfo, today, doctorID, question string) string {
	return strings.NewReplacer(
		"{table_info}", tableInfo,
		"{today}", today,
		"{doctor_id}", doctorID,
		"{question}", question,
	).Replace(p.SQLGen)
}
