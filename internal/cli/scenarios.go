package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/sim"
)

// scenariosCommand creates the scenarios command group.
func (c *CLI) scenariosCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List, inspect, and validate scenario files",
		Long: `Work with simulation scenarios.

Scenarios are TOML (or JSON) files describing processes, resources,
initial allocations, and the requests that drive the system. The
built-in examples cover a two-process deadlock, a three-process
circular deadlock, and a safe system.`,
	}

	cmd.AddCommand(
		c.scenariosListCommand(),
		c.scenariosShowCommand(),
		c.scenariosInitCommand(),
		c.scenariosValidateCommand(),
	)
	return cmd
}

func (c *CLI) scenariosListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in example scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, sc := range sim.Examples() {
				fmt.Println(StyleHighlight.Render(sc.Name))
				printKeyValue("Processes", fmt.Sprintf("%d", len(sc.Processes)))
				printKeyValue("Resources", fmt.Sprintf("%d", len(sc.Resources)))
				printKeyValue("Detection", orDefault(sc.DetectionStrategy, "periodic"))
				printKeyValue("Recovery", orDefault(sc.RecoveryStrategy, "cost"))
				printNewline()
			}
			printNextStep("Write them to disk", appName+" scenarios init")
			return nil
		},
	}
}

func (c *CLI) scenariosShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print an example scenario as TOML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := findExample(args[0])
			if err != nil {
				return err
			}
			data, err := sc.Marshal()
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func (c *CLI) scenariosInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Write the example scenarios to a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "scenarios"
			if len(args) == 1 {
				dir = args[0]
			}

			paths, err := sim.WriteExamples(dir)
			if err != nil {
				return fmt.Errorf("write examples: %w", err)
			}

			printSuccess("Wrote %d example scenarios", len(paths))
			for _, p := range paths {
				printFile(p)
			}
			printNextStep("Run one", appName+" run "+paths[0])
			return nil
		},
	}
}

func (c *CLI) scenariosValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a scenario file for errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := sim.LoadScenario(args[0])
			if err != nil {
				return err
			}
			if err := sc.Validate(); err != nil {
				return err
			}

			printSuccess("Scenario %q is valid", sc.Name)
			printDetail("%d processes, %d resources, %d requests",
				len(sc.Processes), len(sc.Resources),
				len(sc.InitialAllocations)+len(sc.ResourceRequests))
			return nil
		},
	}
}

// findExample looks up a built-in example by name, first exactly, then
// by case-insensitive substring.
func findExample(name string) (*sim.Scenario, error) {
	examples := sim.Examples()
	for i := range examples {
		if examples[i].Name == name {
			return &examples[i], nil
		}
	}
	for i := range examples {
		if strings.Contains(strings.ToLower(examples[i].Name), strings.ToLower(name)) {
			return &examples[i], nil
		}
	}

	names := make([]string, len(examples))
	for i, sc := range examples {
		names[i] = fmt.Sprintf("%q", sc.Name)
	}
	return nil, fmt.Errorf("no example scenario matches %q (available: %s)",
		name, strings.Join(names, ", "))
}

// orDefault substitutes a fallback for the empty string.
func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
