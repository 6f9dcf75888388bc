package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"event-registration/paymentflow"
)

// renderer prints overlay transitions to a terminal
type renderer struct {
	out io.Writer
}

func (r renderer) show(s paymentflow.Snapshot) {
	o := paymentflow.Describe(s)
	if !o.Visible {
		return
	}
	marker := "…"
	switch s.State {
	case paymentflow.Success:
		marker = "✓"
	case paymentflow.Failed, paymentflow.Cancelled:
		marker = "!"
	}
	fmt.Fprintf(r.out, "%s %s\n  %s\n", marker, o.Title, o.Subtitle)
	if o.Warning != "" {
		fmt.Fprintf(r.out, "  %s\n", o.Warning)
	}
	if s.State == paymentflow.Success {
		fmt.Fprintf(r.out, "  Registration ID: %s\n", s.RegistrationID)
		if s.DocumentPending {
			fmt.Fprintln(r.out, "  Your Aadhar photo was not saved. Upload it from the registration desk.")
		}
	}
	if len(o.Actions) > 0 {
		fmt.Fprintf(r.out, "  [%s]\n", strings.Join(o.Actions, "] ["))
	}
}

func (r renderer) fieldErrors(errs map[string]string) {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(r.out, "  %s: %s\n", f, errs[f])
	}
}
