package cli

import (
	"fmt"

	"github.com/n6g7/dnstable/internal/batch"
	"github.com/n6g7/dnstable/internal/record"
	"github.com/n6g7/nomtail/pkg/version"
	"github.com/spf13/cobra"
)

func newApplyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply [FILE]",
		Short: "Apply the ACTION ADDRESS DOMAIN lines of FILE (default: the configured updates file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.conf.UpdatesFile
			if len(args) == 1 {
				path = args[0]
			}

			if err := a.start(); err != nil {
				return err
			}
			report, err := batch.ApplyFile(a.logger, a.table, path)
			if err != nil {
				return err
			}
			if report.Errors != nil {
				for _, lineErr := range report.Errors.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", lineErr)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d updates, %d failed\n", report.Applied, report.Failed())
			return a.stop()
		},
	}
}

func newLookupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup DOMAIN",
		Short: "Print the address of DOMAIN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := record.ParseDomainName(args[0])
			if err != nil {
				return err
			}
			if err := a.start(); err != nil {
				return err
			}
			address, ok := a.table.Lookup(domain)
			if !ok {
				return fmt.Errorf("%s: not found", domain)
			}
			fmt.Fprintln(cmd.OutOrStdout(), address)
			return nil
		},
	}
}

func parsePair(args []string) (record.DomainName, record.IPAddress, error) {
	domain, err := record.ParseDomainName(args[0])
	if err != nil {
		return record.DomainName{}, record.IPAddress{}, err
	}
	address, err := record.ParseIPAddress(args[1])
	if err != nil {
		return record.DomainName{}, record.IPAddress{}, err
	}
	return domain, address, nil
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add DOMAIN ADDRESS",
		Short: "Add or replace a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, address, err := parsePair(args)
			if err != nil {
				return err
			}
			if err := a.start(); err != nil {
				return err
			}
			if previous, found := a.table.Add(domain, address); found {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", domain, previous, address)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", domain, address)
			}
			return a.stop()
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete DOMAIN ADDRESS",
		Aliases: []string{"del"},
		Short:   "Delete a record",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, address, err := parsePair(args)
			if err != nil {
				return err
			}
			if err := a.start(); err != nil {
				return err
			}
			removed, err := a.table.Delete(domain, address)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%s: not found", domain)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: deleted\n", domain)
			return a.stop()
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.start(); err != nil {
				return err
			}
			for _, r := range a.table.Records() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t\t%s\n", r.Address, r.Domain)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// No config needed.
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dnstable %s\n", version.Display())
		},
	}
}
