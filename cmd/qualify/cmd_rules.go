package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/koekalenteri/qualification/rules"
)

var rulesFlags struct {
	class      string
	date       string
	resultType string
	output     string
}

var rulesCmd = &cobra.Command{
	Use:   "rules <eventType>",
	Short: "Show the result requirements in force for an event type",
	Args:  cobra.ExactArgs(1),
	RunE:  runRules,
}

func init() {
	f := rulesCmd.Flags()
	f.StringVar(&rulesFlags.class, "class", "", "Class the dog is registering to (ALO, AVO, VOI)")
	f.StringVar(&rulesFlags.date, "date", "", "Event date as YYYY-MM-DD (default today)")
	f.StringVar(&rulesFlags.resultType, "type", "", "Result type to list the result codes of (default all)")
	f.StringVarP(&rulesFlags.output, "output", "o", "yaml", "Output format: yaml or json")
}

type rulesView struct {
	EventType    string              `json:"eventType" yaml:"eventType"`
	Class        rules.Class         `json:"class,omitempty" yaml:"class,omitempty"`
	RuleDate     rules.RuleDate      `json:"ruleDate" yaml:"ruleDate"`
	Custom       bool                `json:"custom" yaml:"custom"`
	Alternatives []rules.Alternative `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
	ResultTypes  []string            `json:"resultTypes" yaml:"resultTypes"`
	ResultCodes  []string            `json:"resultCodes" yaml:"resultCodes"`
}

func runRules(cmd *cobra.Command, args []string) error {
	c, err := catalog()
	if err != nil {
		return err
	}

	eventType, class := args[0], rules.Class(rulesFlags.class)
	date := time.Now().In(c.Location())
	if rulesFlags.date != "" {
		date, err = time.ParseInLocation(time.DateOnly, rulesFlags.date, c.Location())
		if err != nil {
			return fmt.Errorf("--date: %w", err)
		}
	}

	req, ok := c.Requirements(eventType, class, date)
	if !ok {
		return fmt.Errorf("no requirements for %s %s on %s", eventType, class, date.Format(time.DateOnly))
	}

	view := rulesView{
		EventType:   eventType,
		Class:       class,
		RuleDate:    req.Date,
		ResultTypes: rules.AvailableTypes(req.Rules, eventType),
		ResultCodes: rules.AvailableResults(req.Rules, rulesFlags.resultType, eventType, nil),
	}
	switch rs := req.Rules.(type) {
	case rules.FixedRules:
		view.Alternatives = rs
	case rules.CustomRules:
		view.Custom = true
	}
	return render(cmd.OutOrStdout(), rulesFlags.output, view)
}
