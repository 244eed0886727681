package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"setdb-init/internal/bootstrap/domain/model"
)

type reportOutput struct {
	*model.Report
	Message string `json:"message,omitempty"`
}

// writeReport prints a run report. In text mode only the confirmation line is
// written, and only for a successful run; step detail goes to the log.
func writeReport(w io.Writer, report *model.Report, asJSON bool) error {
	if asJSON {
		out := reportOutput{Report: report}
		if report.Succeeded() {
			out.Message = report.ConfirmationMessage()
		}
		return encodeJSON(w, out)
	}

	if report.Succeeded() {
		_, err := fmt.Fprintln(w, report.ConfirmationMessage())
		return err
	}
	return nil
}

func writeConnectivity(w io.Writer, conn *model.Connectivity) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Connected to %s (%s)\n", conn.URI, conn.Latency.Round(time.Millisecond))
	fmt.Fprintln(&b, "Databases:")
	for _, name := range conn.Databases {
		fmt.Fprintf(&b, "  - %s\n", name)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeVerification(w io.Writer, v *model.Verification, asJSON bool) error {
	if asJSON {
		return encodeJSON(w, struct {
			*model.Verification
			Satisfied bool     `json:"satisfied"`
			Missing   []string `json:"missing"`
			Populated []string `json:"populated"`
		}{v, v.Satisfied(), v.Missing(), v.Populated()})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Database %s: %s\n", v.Database, presence(v.DatabaseFound, "found", "not found"))
	switch {
	case !v.UserExists:
		fmt.Fprintf(&b, "User %s: missing\n", v.Username)
	case !v.RoleGranted:
		fmt.Fprintf(&b, "User %s: exists, role not granted\n", v.Username)
	default:
		fmt.Fprintf(&b, "User %s: exists, role granted\n", v.Username)
	}
	for _, c := range v.Collections {
		if c.Exists {
			fmt.Fprintf(&b, "Collection %s: exists (%d documents)\n", c.Name, c.Documents)
		} else {
			fmt.Fprintf(&b, "Collection %s: missing\n", c.Name)
		}
	}
	if len(v.Unexpected) > 0 {
		fmt.Fprintf(&b, "Unexpected collections: %s\n", strings.Join(v.Unexpected, ", "))
	}
	fmt.Fprintf(&b, "Status: %s\n", presence(v.Satisfied(), "satisfied", "not satisfied"))

	_, err := io.WriteString(w, b.String())
	return err
}

func presence(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

func encodeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
