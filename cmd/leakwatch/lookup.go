package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/leakwatch/internal/lookup"
	"github.com/nao1215/leakwatch/internal/model"
)

// NewLookupCmd creates the lookup command.
func NewLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Find stored pages exposing an email, phone or card number",
		Long: `Lookup searches the local database for findings containing any of the
given values. It answers the same question as GET /search without a
running server.

Examples:
  leakwatch lookup --email someone@example.com
  leakwatch lookup --phone 9876543210 --json
  leakwatch lookup --email a@b.com --credit-card "4111 1111 1111 1111" --markdown -o hits.md`,
		Args: cobra.NoArgs,
		RunE: runLookupCmd,
	}

	cmd.Flags().String("email", "", "Email address to look up")
	cmd.Flags().String("phone", "", "Phone number to look up")
	cmd.Flags().String("credit-card", "", "Card number to look up, exactly as extracted")
	addReportFlags(cmd)

	return cmd
}

func runLookupCmd(cmd *cobra.Command, _ []string) error {
	var (
		l   model.Lookup
		err error
	)
	if l.Email, err = cmd.Flags().GetString("email"); err != nil {
		return err
	}
	if l.Phone, err = cmd.Flags().GetString("phone"); err != nil {
		return err
	}
	if l.CreditCard, err = cmd.Flags().GetString("credit-card"); err != nil {
		return err
	}
	if l.Normalize().IsEmpty() {
		return fmt.Errorf("%w: use --email, --phone or --credit-card", lookup.ErrNoCriteria)
	}

	writer, closeOutput, err := newReportWriter(cmd)
	if err != nil {
		return err
	}
	defer closeOutput()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, false)
	if err != nil {
		return err
	}
	defer store.Close()

	findings, err := lookup.NewService(store).Search(cmd.Context(), l)
	if err != nil {
		return err
	}
	_, err = writer.WriteFindings(findings)
	return err
}
