package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ManuelReschke/ProposalCraft/app/models"
	"github.com/ManuelReschke/ProposalCraft/app/repository"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/database"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/env"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/licensing"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/mail"
)

// CLI issues license keys.
type CLI struct {
	Tier     string `short:"t" help:"License tier." enum:"monthly,yearly,lifetime" default:"monthly"`
	Quantity int    `short:"n" help:"Number of keys to generate." default:"1"`
	Email    string `short:"e" help:"Customer email stored with saved keys and used for the snippet."`
	Save     bool   `help:"Insert the keys into the licenses table."`
	Send     bool   `help:"Mail the keys to --email via SMTP_* settings."`
	AppURL   string `name:"app-url" help:"URL shown in the customer email." default:"https://proposalcraft.com" env:"APP_URL"`
}

// batchSaver is the part of the license repository used by --save.
type batchSaver interface {
	CreateBatch(licenses []*models.License) error
}

type sender interface {
	Send(to, subject, body string) error
}

type outputs struct {
	saver  batchSaver
	sender sender
}

func main() {
	env.SetupEnvFile()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("licensegen"),
		kong.Description("Generate ProposalCraft license keys."),
		kong.UsageOnError(),
	)

	var o outputs
	if cli.Save {
		database.SetupDatabase()
		repository.InitializeFactory(database.GetDB())
		o.saver = repository.GetGlobalFactory().Licenses()
	}
	if cli.Send {
		o.sender = mail.NewMailer(mail.ConfigFromEnv())
	}

	ctx.FatalIfErrorf(generate(os.Stdout, cli, time.Now().UTC(), o))
}

func generate(out io.Writer, cli CLI, now time.Time, o outputs) error {
	tier, ok := licensing.ParseTier(cli.Tier)
	if !ok {
		return fmt.Errorf("unknown tier %q", cli.Tier)
	}
	if o.sender != nil && cli.Email == "" {
		return errors.New("--send requires --email")
	}

	records, err := licensing.IssueBatch(tier, cli.Quantity, now)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "# %d %s license(s) generated %s\n", len(records), tier.Title(), now.Format("2006-01-02"))
	for _, r := range records {
		fmt.Fprintln(out, r.RegistryLine())
	}

	if o.saver != nil {
		rows := make([]*models.License, 0, len(records))
		for _, r := range records {
			rows = append(rows, r.Model(cli.Email))
		}
		if err := o.saver.CreateBatch(rows); err != nil {
			return fmt.Errorf("save licenses: %w", err)
		}
		fmt.Fprintf(out, "# saved %d license(s) to the database\n", len(rows))
	}

	if cli.Email != "" || len(records) == 1 {
		fmt.Fprintln(out)
		if cli.Email != "" {
			fmt.Fprintf(out, "To: %s\n", cli.Email)
		}
		for _, r := range records {
			fmt.Fprintln(out, licensing.EmailSnippet(r, cli.AppURL))
		}
	}

	if o.sender != nil {
		var body strings.Builder
		for _, r := range records {
			body.WriteString(licensing.EmailSnippet(r, cli.AppURL))
			body.WriteString("\n")
		}
		subject := fmt.Sprintf("Your ProposalCraft %s License", tier.Title())
		if err := o.sender.Send(cli.Email, subject, body.String()); err != nil {
			return err
		}
		fmt.Fprintf(out, "# mailed %d license(s) to %s\n", len(records), cli.Email)
	}
	return nil
}
