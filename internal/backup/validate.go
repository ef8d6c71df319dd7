package backup

import (
	"bytes"
	"encoding/json"

	"github.com/erazemk/sentinela/internal/imaging"
	"github.com/erazemk/sentinela/internal/model"
)

// decodeDataset checks that every section is present with the right JSON
// shape and decodes it.
func decodeDataset(sections map[string]json.RawMessage) (*model.Dataset, error) {
	problems := &ValidationError{}

	for _, name := range Sections {
		raw, ok := sections[name]
		trimmed := bytes.TrimSpace(raw)
		switch {
		case !ok:
			problems.add("missing section %s", name)
		case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
			problems.add("section %s is null", name)
		case name == SectionSettings && trimmed[0] != '{':
			problems.add("section %s must be an object", name)
		case name != SectionSettings && trimmed[0] != '[':
			problems.add("section %s must be an array", name)
		}
	}
	if !problems.empty() {
		return nil, problems
	}

	var ds model.Dataset
	targets := map[string]any{
		SectionMaterials: &ds.Materials,
		SectionPersonnel: &ds.Personnel,
		SectionCautelas:  &ds.Cautelas,
		SectionLogs:      &ds.Logs,
		SectionSettings:  &ds.Settings,
	}
	for _, name := range Sections {
		if err := json.Unmarshal(sections[name], targets[name]); err != nil {
			problems.add("section %s: %v", name, err)
		}
	}
	if !problems.empty() {
		return nil, problems
	}

	if ds.Settings.Admins == nil {
		ds.Settings.Admins = []model.Admin{}
	}
	return &ds, nil
}

// validateDataset checks every record and the references between them.
func validateDataset(ds *model.Dataset) error {
	problems := &ValidationError{}

	materials := make(map[string]*model.Material, len(ds.Materials))
	for i := range ds.Materials {
		m := &ds.Materials[i]
		switch {
		case m.ID == "":
			problems.add("material %d has no id", i)
			continue
		case materials[m.ID] != nil:
			problems.add("duplicate material id %s", m.ID)
			continue
		}
		materials[m.ID] = m
		if m.Name == "" {
			problems.add("material %s has no name", m.ID)
		}
		if m.TotalQuantity < 0 || m.AvailableQuantity < 0 {
			problems.add("material %s has a negative quantity", m.ID)
		}
		if m.AvailableQuantity > m.TotalQuantity {
			problems.add("material %s has more available (%d) than total (%d)", m.ID, m.AvailableQuantity, m.TotalQuantity)
		}
	}

	people := make(map[string]bool, len(ds.Personnel))
	registrations := make(map[string]bool, len(ds.Personnel))
	for i, p := range ds.Personnel {
		switch {
		case p.ID == "":
			problems.add("personnel %d has no id", i)
			continue
		case people[p.ID]:
			problems.add("duplicate personnel id %s", p.ID)
			continue
		}
		people[p.ID] = true
		if p.Name == "" {
			problems.add("personnel %s has no name", p.ID)
		}
		if p.RegistrationNumber == "" {
			problems.add("personnel %s has no registration number", p.ID)
		} else if registrations[p.RegistrationNumber] {
			problems.add("duplicate registration number %s", p.RegistrationNumber)
		}
		registrations[p.RegistrationNumber] = true
	}

	open := make(map[string]int)
	cautelas := make(map[string]bool, len(ds.Cautelas))
	for i, c := range ds.Cautelas {
		switch {
		case c.ID == "":
			problems.add("cautela %d has no id", i)
			continue
		case cautelas[c.ID]:
			problems.add("duplicate cautela id %s", c.ID)
			continue
		}
		cautelas[c.ID] = true

		if c.PersonnelID == "" {
			problems.add("cautela %s has no personnel", c.ID)
		}
		if c.IssuedAt.IsZero() {
			problems.add("cautela %s has no issue time", c.ID)
		}
		switch c.Status {
		case model.CautelaStatusOpen:
			if c.ReturnedAt != nil {
				problems.add("open cautela %s has a return time", c.ID)
			}
			if c.PersonnelID != "" && !people[c.PersonnelID] {
				problems.add("open cautela %s references missing personnel %s", c.ID, c.PersonnelID)
			}
		case model.CautelaStatusReturned:
			if c.ReturnedAt == nil {
				problems.add("returned cautela %s has no return time", c.ID)
			}
		default:
			problems.add("cautela %s has unknown status %q", c.ID, c.Status)
		}

		if len(c.Items) == 0 {
			problems.add("cautela %s has no items", c.ID)
		}
		lines := make(map[string]bool, len(c.Items))
		for _, it := range c.Items {
			if it.MaterialID == "" {
				problems.add("cautela %s has an item without material", c.ID)
				continue
			}
			if lines[it.MaterialID] {
				problems.add("cautela %s lists material %s twice", c.ID, it.MaterialID)
			}
			lines[it.MaterialID] = true
			if it.Quantity < 1 {
				problems.add("cautela %s has quantity %d for material %s", c.ID, it.Quantity, it.MaterialID)
			}
			if c.Status == model.CautelaStatusOpen {
				if materials[it.MaterialID] == nil {
					problems.add("open cautela %s references missing material %s", c.ID, it.MaterialID)
				}
				open[it.MaterialID] += it.Quantity
			}
		}
	}

	for i := range ds.Materials {
		m := &ds.Materials[i]
		// Skip records already rejected for their id.
		if materials[m.ID] != m {
			continue
		}
		if issued := m.TotalQuantity - m.AvailableQuantity; issued != open[m.ID] {
			problems.add("material %s has %d units issued but %d on open cautelas", m.ID, issued, open[m.ID])
		}
	}

	logs := make(map[string]bool, len(ds.Logs))
	for i, l := range ds.Logs {
		switch {
		case l.ID == "":
			problems.add("log %d has no id", i)
		case logs[l.ID]:
			problems.add("duplicate log id %s", l.ID)
		}
		logs[l.ID] = true
		if l.Timestamp.IsZero() {
			problems.add("log %d has no timestamp", i)
		}
	}

	validateSettings(&ds.Settings, problems)

	if !problems.empty() {
		return problems
	}
	return nil
}

func validateSettings(s *model.AppSettings, problems *ValidationError) {
	if s.InstitutionName == "" {
		problems.add("settings have no institution name")
	}
	if !model.ValidTheme(s.Theme) {
		problems.add("settings have unknown theme %q", s.Theme)
	}
	if s.InstitutionLogo != "" && !imaging.IsDataURL(s.InstitutionLogo) {
		problems.add("institution logo is not an image data URL")
	}

	ids := make(map[string]bool, len(s.Admins))
	matriculas := make(map[string]bool, len(s.Admins))
	supers := 0
	for i, a := range s.Admins {
		if a.ID == "" {
			problems.add("admin %d has no id", i)
		} else if ids[a.ID] {
			problems.add("duplicate admin id %s", a.ID)
		}
		ids[a.ID] = true
		if a.Name == "" || a.Matricula == "" {
			problems.add("admin %d needs a name and matricula", i)
		} else if matriculas[a.Matricula] {
			problems.add("duplicate admin matricula %s", a.Matricula)
		}
		matriculas[a.Matricula] = true
		// No implicit default: a missing role is an error.
		if !model.ValidRole(a.Role) {
			problems.add("admin %d has invalid role %q", i, a.Role)
		}
		if a.Role == model.RoleSuperAdmin {
			supers++
		}
	}
	// An empty roster bootstraps on the next login; any other roster must
	// keep exactly one admin able to manage it.
	if len(s.Admins) > 0 && supers != 1 {
		problems.add("%d super administrators; exactly one is required", supers)
	}
}
