package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/koekalenteri/qualification/rules"
)

var checkFlags struct {
	file       string
	output     string
	allClasses bool
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a dog qualifies for an event class",
	Long: `check reads a registration document with the event, the class and the
results of the dog, and prints the qualification outcome.

Example document:

  event:
    eventType: NOME-B
    startDate: 2024-06-01
    entryEndDate: 2024-05-15
  class: AVO
  officialResults:
    - type: NOME-B
      class: ALO
      result: ALO1
      date: 2023-09-01
      location: Oulu
      judge: Judge

A previousEvent with the entry dates of the previous event of the same
type starts the qualification period the day after its entry closed.`,
	RunE: runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.StringVarP(&checkFlags.file, "file", "f", "", "Registration document (YAML or JSON), - for stdin (required)")
	f.StringVarP(&checkFlags.output, "output", "o", "yaml", "Output format: yaml or json")
	f.BoolVar(&checkFlags.allClasses, "all-classes", false, "Check every class of the event type")

	_ = checkCmd.MarkFlagRequired("file")
}

// checkDocument is a registration document
type checkDocument struct {
	rules.QualifyRequest `yaml:",inline"`
	PreviousEvent        *rules.Event `yaml:"previousEvent,omitempty"`
}

// checkView is the outcome of a single class
type checkView struct {
	rules.Outcome `yaml:",inline"`
	Missing       *rules.QualifyingResult `json:"missing,omitempty" yaml:"missing,omitempty"`
}

func runCheck(cmd *cobra.Command, _ []string) error {
	doc, err := readRequest(cmd.InOrStdin(), checkFlags.file)
	if err != nil {
		return err
	}
	req := doc.QualifyRequest
	if req.Event.EventType == "" || req.Event.StartDate.IsZero() {
		return fmt.Errorf("%s: event.eventType and event.startDate are required", checkFlags.file)
	}
	if req.Official == nil {
		req.Official = []rules.Result{}
	}
	for i := range req.Official {
		req.Official[i].Official = true
	}

	c, err := catalog()
	if err != nil {
		return err
	}
	if doc.PreviousEvent != nil {
		req.Event = c.AfterPrevious(req.Event, *doc.PreviousEvent)
	}
	engine := rules.NewEngine(c, rules.NewInMemoryResultStore(), nil, nil)

	if checkFlags.allClasses {
		outcomes, err := engine.QualifyClasses(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("check: %w", err)
		}
		return render(cmd.OutOrStdout(), checkFlags.output, outcomes)
	}

	out, err := engine.Qualify(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}
	view := checkView{Outcome: out}
	if m, ok := c.MissingResult(req.Event, req.Class, req.RegNo, out, time.Now().In(c.Location())); ok {
		view.Missing = &m
	}
	return render(cmd.OutOrStdout(), checkFlags.output, view)
}

// readRequest decodes a registration document. YAML is a superset of JSON
// so both are accepted.
func readRequest(stdin io.Reader, path string) (checkDocument, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return checkDocument{}, fmt.Errorf("read %s: %w", path, err)
	}

	var doc checkDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return checkDocument{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func render(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (use yaml or json)", format)
	}
}
