package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"go.trai.ch/mirror/internal/app"
	"go.trai.ch/mirror/internal/core/domain"
)

type printer struct {
	w    io.Writer
	json bool
}

func (p *printer) entity(e domain.Entity) error {
	if p.json {
		return json.NewEncoder(p.w).Encode(e)
	}
	return p.table(e.EntityType(), []domain.Entity{e})
}

func (p *printer) entities(t domain.EntityType, list []domain.Entity) error {
	if p.json {
		if list == nil {
			list = []domain.Entity{}
		}
		return json.NewEncoder(p.w).Encode(list)
	}
	if len(list) == 0 {
		_, err := fmt.Fprintf(p.w, "no %s\n", t)
		return err
	}
	return p.table(t, list)
}

type eventJSON struct {
	Kind   string        `json:"kind"`
	Type   string        `json:"type"`
	ID     string        `json:"id,omitempty"`
	Entity domain.Entity `json:"entity,omitempty"`
}

func (p *printer) event(ev app.Event) error {
	if p.json {
		return json.NewEncoder(p.w).Encode(eventJSON{
			Kind:   ev.Kind.String(),
			Type:   string(ev.Type),
			ID:     ev.ID,
			Entity: ev.Entity,
		})
	}
	line := fmt.Sprintf("%-6s %s", ev.Kind, ev.Type)
	if ev.ID != "" {
		line += "/" + ev.ID
	}
	if ev.Entity != nil {
		line += "  " + strings.Join(row(ev.Entity)[1:], "  ")
	}
	_, err := fmt.Fprintln(p.w, line)
	return err
}

func (p *printer) table(t domain.EntityType, list []domain.Entity) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(header(t), "\t"))
	for _, e := range list {
		_, _ = fmt.Fprintln(tw, strings.Join(row(e), "\t"))
	}
	return tw.Flush()
}

func header(t domain.EntityType) []string {
	switch t {
	case domain.TypeOrganizations:
		return []string{"ID", "NAME", "SLUG", "PLAN"}
	case domain.TypeProjects:
		return []string{"ID", "ORGANIZATION", "NAME", "ARCHIVED"}
	case domain.TypeJobs:
		return []string{"ID", "PROJECT", "STATUS", "PROGRESS"}
	case domain.TypeResults:
		return []string{"ID", "JOB", "KIND", "CONFIDENCE", "REVIEWED"}
	case domain.TypeWorkflows:
		return []string{"ID", "PROJECT", "NAME", "STEPS", "ENABLED"}
	default:
		return []string{"ID"}
	}
}

func row(e domain.Entity) []string {
	switch v := e.(type) {
	case domain.Organization:
		return []string{v.ID, v.Name, v.Slug, dash(v.Plan)}
	case domain.Project:
		return []string{v.ID, v.OrganizationID, v.Name, strconv.FormatBool(v.Archived)}
	case domain.Job:
		return []string{v.ID, v.ProjectID, string(v.Status), strconv.FormatFloat(v.Progress*100, 'f', 0, 64) + "%"}
	case domain.Result:
		return []string{v.ID, v.JobID, v.Kind, strconv.FormatFloat(v.Confidence, 'f', 2, 64), strconv.FormatBool(v.Reviewed)}
	case domain.Workflow:
		return []string{v.ID, v.ProjectID, v.Name, dash(strings.Join(v.Steps, ",")), strconv.FormatBool(v.Enabled)}
	default:
		return []string{e.EntityID()}
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
