package commands

import (
	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-soql/internal/adapters/transport/rest"
	"github.com/satishbabariya/prisma-soql/internal/config"
	"github.com/satishbabariya/prisma-soql/internal/ui"
)

// NewLoginCommand creates the login command.
func NewLoginCommand(a *App) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify credentials against the remote service",
		Long:  "Log in with the username/password flow, prompting for missing credentials. Secrets are never written to the config file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.REST
			if err := promptCredentials(&cfg); err != nil {
				return err
			}

			done := ui.Spinner("Logging in...")
			client, err := rest.Login(cmd.Context(), rest.Config{
				LoginURL:      cfg.LoginURL,
				APIVersion:    cfg.APIVersion,
				ClientID:      cfg.ClientID,
				ClientSecret:  cfg.ClientSecret,
				Username:      cfg.Username,
				Password:      cfg.Password,
				SecurityToken: cfg.SecurityToken,
				Timeout:       cfg.Timeout,
			})
			if err != nil {
				done(false, "Login failed")
				return err
			}
			done(true, "Logged in to "+client.InstanceURL())

			if !save {
				return nil
			}
			path, err := config.DefaultPath()
			if err != nil {
				return err
			}
			a.cfg.REST = cfg
			if err := a.loader.Save(a.cfg, path); err != nil {
				return err
			}
			ui.PrintSuccess("Saved settings to %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Save the username and login URL to the user config file")

	return cmd
}

func promptCredentials(cfg *config.RESTConfig) error {
	var questions []*survey.Question
	if cfg.Username == "" {
		questions = append(questions, &survey.Question{
			Name:     "username",
			Prompt:   &survey.Input{Message: "Username:"},
			Validate: survey.Required,
		})
	}
	if cfg.Password == "" {
		questions = append(questions, &survey.Question{
			Name:     "password",
			Prompt:   &survey.Password{Message: "Password:"},
			Validate: survey.Required,
		})
	}
	if cfg.SecurityToken == "" {
		questions = append(questions, &survey.Question{
			Name:   "token",
			Prompt: &survey.Password{Message: "Security token (optional):"},
		})
	}
	if len(questions) == 0 {
		return nil
	}

	answers := struct {
		Username string `survey:"username"`
		Password string `survey:"password"`
		Token    string `survey:"token"`
	}{}
	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}

	if answers.Username != "" {
		cfg.Username = answers.Username
	}
	if answers.Password != "" {
		cfg.Password = answers.Password
	}
	if answers.Token != "" {
		cfg.SecurityToken = answers.Token
	}
	return nil
}
