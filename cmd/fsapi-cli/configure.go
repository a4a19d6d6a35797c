package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/fsapi"
	"github.com/sagarc03/fsapi/clientcli"
)

// errCancelled ends an interactive command without reporting a failure.
var errCancelled = errors.New("cancelled")

var showSecrets bool

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage server profiles",
	Long: `Manage server profiles in the configuration file.

A profile holds the endpoint, user and secret key for one fsapi server.
Select one with --profile or FSAPI_PROFILE; otherwise the default is used.

Profiles are stored in ~/.fsapi/config.yaml`,
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List configured profiles",
		Long:  "List configured profiles. The default profile is marked with an asterisk (*).",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cf, err := loadProfiles(true)
			if err != nil {
				return err
			}
			if len(cf.Profiles) == 0 {
				fmt.Println("No profiles configured. Run 'fsapi-cli configure add <name>' to create one.")
				return nil
			}
			def, err := cf.GetDefaultProfile()
			if err != nil {
				return err
			}
			return getFormatter().FormatProfileList(os.Stdout, cf.Profiles, def.Name, showSecrets)
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or update a profile interactively",
		Long: `Add or update a profile interactively.

Prompts for the endpoint URL, user, secret key and payload fingerprint
(md5 unless the server runs with auth.fingerprint: sha256). The profile is
checked against the server before it is saved.`,
		Args: cobra.ExactArgs(1),
		RunE: runConfigureAdd,
	}

	removeCmd := &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a profile",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return editProfiles(func(cf *clientcli.ConfigFile) (string, error) {
				if _, err := cf.GetProfile(args[0]); err != nil {
					return "", err
				}
				if !confirm(fmt.Sprintf("Remove profile '%s'", args[0])) {
					return "", errCancelled
				}
				return fmt.Sprintf("Profile '%s' removed.", args[0]), cf.RemoveProfile(args[0])
			})
		},
	}

	setDefaultCmd := &cobra.Command{
		Use:   "set-default <name>",
		Short: "Set the default profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return editProfiles(func(cf *clientcli.ConfigFile) (string, error) {
				return fmt.Sprintf("Default profile set to '%s'.", args[0]), cf.SetDefault(args[0])
			})
		},
	}

	showCmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Show a profile",
		Long:  "Show a profile, or the default one when no name is given. Use --show-secrets to reveal the secret key.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cf, err := loadProfiles(false)
			if err != nil {
				return err
			}
			var name string
			if len(args) > 0 {
				name = args[0]
			}
			p, err := cf.GetProfile(name)
			if err != nil {
				return err
			}
			def, err := cf.GetDefaultProfile()
			if err != nil {
				return err
			}
			return getFormatter().FormatProfileShow(os.Stdout, *p, p.Name == def.Name, showSecrets)
		},
	}

	for _, c := range []*cobra.Command{listCmd, showCmd} {
		c.Flags().BoolVar(&showSecrets, "show-secrets", false, "show secret values")
	}
	configureCmd.AddCommand(listCmd, addCmd, removeCmd, setDefaultCmd, showCmd)
}

// loadProfiles reads the profile file. With allowMissing, a missing file
// yields an empty ConfigFile.
func loadProfiles(allowMissing bool) (*clientcli.ConfigFile, error) {
	cf, err := clientcli.LoadConfigFile(getConfigPath())
	if errors.Is(err, os.ErrNotExist) && allowMissing {
		return &clientcli.ConfigFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cf, nil
}

// editProfiles applies edit to the profile file and saves it.
func editProfiles(edit func(cf *clientcli.ConfigFile) (string, error)) error {
	cf, err := loadProfiles(false)
	if err != nil {
		return err
	}
	msg, err := edit(cf)
	if err != nil {
		return err
	}
	if err := cf.Save(getConfigPath()); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Println(msg)
	return nil
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	name := args[0]

	cf, err := loadProfiles(true)
	if err != nil {
		return err
	}

	existing, _ := cf.GetProfile(name)
	if existing != nil && !confirm(fmt.Sprintf("Profile '%s' already exists. Update it", name)) {
		return errCancelled
	}

	p, err := promptProfile(name)
	if err != nil {
		return err
	}
	p.Default = len(cf.Profiles) == 0 ||
		(existing != nil && existing.Default) ||
		confirm("Set as default profile")

	fmt.Print("Testing connection... ")
	if err := checkProfile(cmd.Context(), p); err != nil {
		fmt.Println("FAILED")
		fmt.Printf("Warning: %v\n", err)
		if !confirm("Save profile anyway") {
			return errCancelled
		}
	} else {
		fmt.Println("OK")
	}

	verb := "added"
	if existing != nil {
		verb = "updated"
		err = cf.UpdateProfile(p)
	} else {
		err = cf.AddProfile(p)
	}
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if p.Default {
		if err := cf.SetDefault(name); err != nil {
			return err
		}
	}
	if err := cf.Save(getConfigPath()); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Profile '%s' %s.\n", name, verb)
	if p.Default {
		fmt.Println("Set as default profile.")
	}
	return nil
}

// promptProfile asks for the connection details of a profile.
func promptProfile(name string) (clientcli.Profile, error) {
	p := clientcli.Profile{Name: name}

	endpointURL, err := (&promptui.Prompt{
		Label:    "Endpoint URL",
		Default:  clientcli.DefaultEndpoint,
		Validate: validateEndpoint,
	}).Run()
	if err != nil {
		return p, promptErr(err)
	}
	p.Endpoint = strings.TrimSuffix(endpointURL, "/")

	p.User, err = (&promptui.Prompt{
		Label: "User",
		Validate: func(s string) error {
			if !fsapi.IsValidIdentity(s) {
				return errors.New("user must be a single path segment without spaces")
			}
			return nil
		},
	}).Run()
	if err != nil {
		return p, promptErr(err)
	}

	p.SecretKey, err = (&promptui.Prompt{Label: "Secret Key", Mask: '*'}).Run()
	if err != nil {
		return p, promptErr(err)
	}

	_, p.Fingerprint, err = (&promptui.Select{
		Label: "Payload fingerprint",
		Items: []string{string(fsapi.FingerprintMD5), string(fsapi.FingerprintSHA256)},
	}).Run()
	if err != nil {
		return p, promptErr(err)
	}

	return p, nil
}

func validateEndpoint(s string) error {
	u, err := url.Parse(s)
	switch {
	case s == "":
		return errors.New("endpoint URL is required")
	case err != nil:
		return fmt.Errorf("invalid URL: %w", err)
	case u.Scheme != "http" && u.Scheme != "https":
		return errors.New("URL must start with http:// or https://")
	}
	return nil
}

// confirm asks a yes/no question. Anything but yes is no.
func confirm(label string) bool {
	_, err := (&promptui.Prompt{Label: label, IsConfirm: true}).Run()
	return err == nil
}

func promptErr(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		return errCancelled
	}
	return err
}

// checkProfile probes the liveness endpoint, then lists the user's top
// directory to check the credentials. A user without a directory still
// authenticated.
func checkProfile(ctx context.Context, p clientcli.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := clientcli.New(clientcli.ConfigFromProfile(&p), clientcli.WithTimeout(5*time.Second))
	if err != nil {
		return err
	}
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	if _, err := client.List(ctx, clientcli.ListOptions{}); err != nil && !errors.Is(err, clientcli.ErrNoRoot) {
		return fmt.Errorf("credentials rejected: %w", err)
	}
	return nil
}
