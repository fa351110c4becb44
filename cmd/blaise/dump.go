package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"blaise/internal/bytecode"
	"blaise/internal/module"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <unit.bcu>",
	Short: "Print the contents of a compiled unit",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().Bool("header", false, "print only the header, classes and globals")
}

func runDump(cmd *cobra.Command, args []string) error {
	headerOnly, err := cmd.Flags().GetBool("header")
	if err != nil {
		return fmt.Errorf("failed to get header flag: %w", err)
	}
	u, ok, err := module.LoadFile(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: no such unit", args[0])
	}
	if err := u.Validate(); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	out := cmd.OutOrStdout()
	dumpHeader(out, u)
	if headerOnly {
		return nil
	}
	for i := range u.Routines {
		fmt.Fprintln(out)
		if err := bytecode.Print(out, &u.Routines[i], &u.Pool); err != nil {
			return err
		}
	}
	return nil
}

func dumpHeader(out io.Writer, u *module.Unit) {
	fmt.Fprintf(out, "%s %s (schema %d)\n", u.Kind, u.Display, u.Schema)
	fmt.Fprintf(out, "  source  %s\n", u.Path)
	fmt.Fprintf(out, "  hash    %s\n", u.SourceHash.Short())
	if len(u.Imports) > 0 {
		deps := make([]string, 0, len(u.DepHashes))
		for _, d := range u.DepHashes {
			deps = append(deps, d.Name+"@"+d.Hash.Short())
		}
		fmt.Fprintf(out, "  uses    %s\n", strings.Join(deps, ", "))
	}
	for _, g := range u.Globals {
		fmt.Fprintf(out, "  var     %s: %s\n", g.Name, g.Shape)
	}
	for _, c := range u.Classes {
		base := ""
		if c.Base != nil {
			base = " extends " + c.Base.Module + "." + c.Base.Name
		}
		fmt.Fprintf(out, "  class   %s%s slots=%d\n", c.Name, base, c.Slots)
		for i, slot := range c.VMT {
			fmt.Fprintf(out, "    vmt[%d] %s -> %s#%d\n", i, slot.Selector, slot.Routine.Module, slot.Routine.Index)
		}
	}
	if u.Init >= 0 {
		fmt.Fprintf(out, "  init    %s\n", u.Routines[u.Init].Name)
	}
	if u.Main >= 0 {
		fmt.Fprintf(out, "  main    %s\n", u.Routines[u.Main].Name)
	}
}
