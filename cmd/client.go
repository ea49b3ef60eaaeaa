package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/codevault/internal/client"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var clientCmdFlags struct {
	Server    string
	TokenFile string
}

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Use a CodeVault server from the terminal",
	Example: `codevault client login demo --server http://localhost:8080
  codevault client projects --language TypeScript
  codevault client guide p1`,
}

var clientLoginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in and store the access token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		accessKey, err := readAccessKey()
		if err != nil {
			return err
		}

		session, err := newClientSession()
		if err != nil {
			return err
		}

		user, err := session.Login(cmd.Context(), args[0], accessKey, deviceName())
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s (%s)\n", user.Name, user.Username)
		return nil
	},
}

var clientWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := newClientSession()
		if err != nil {
			return err
		}

		state := session.Init(cmd.Context())
		if state.User == nil {
			return errNotLoggedIn
		}
		fmt.Printf("%s (%s)\n", state.User.Name, state.User.Username)
		return nil
	},
}

var clientLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke and forget the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := newClientSession()
		if err != nil {
			return err
		}
		session.Logout(cmd.Context())
		fmt.Println("Logged out")
		return nil
	},
}

var clientProjectsFlags client.ProjectFilter

var clientProjectsCmd = &cobra.Command{
	Use:   "projects [id]",
	Short: "List the projects, or show one with its download command",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, token, err := authenticatedClient(cmd)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			detail, err := api.Project(cmd.Context(), token, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s [%s, %s]\n\n%s\n\n", detail.Title, detail.Language, detail.Difficulty, detail.Description)
			fmt.Printf("Tags: %s\n\n", strings.Join(detail.Tags, ", "))
			fmt.Printf("%s\n\n$ %s\n", detail.FileStructure, detail.Command)
			return nil
		}

		list, err := api.Projects(cmd.Context(), token, clientProjectsFlags)
		if err != nil {
			return err
		}
		if len(list.Projects) == 0 {
			fmt.Println("No projects match the filter.")
			return nil
		}
		for _, p := range list.Projects {
			fmt.Printf("%-4s %-28s %-12s %s\n", p.ID, p.Title, p.Language, p.Difficulty)
		}
		return nil
	},
}

var clientGuideCmd = &cobra.Command{
	Use:   "guide <id>",
	Short: "Show the study guide of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, token, err := authenticatedClient(cmd)
		if err != nil {
			return err
		}
		guide, err := api.StudyGuide(cmd.Context(), token, args[0])
		if err != nil {
			return err
		}
		fmt.Println(guide.Guide)
		return nil
	},
}

var clientExplainCmd = &cobra.Command{
	Use:   "explain <id>",
	Short: "Explain the download command of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, token, err := authenticatedClient(cmd)
		if err != nil {
			return err
		}
		explanation, err := api.Explain(cmd.Context(), token, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("$ %s\n\n%s\n", explanation.Command, explanation.Explanation)
		return nil
	},
}

var errNotLoggedIn = errors.New("not logged in, run `codevault client login <username>` first")

func init() {
	clientCmd.PersistentFlags().StringVar(&clientCmdFlags.Server, "server", "", "CodeVault server URL (default: $CODEVAULT_SERVER or http://localhost:8080)")
	clientCmd.PersistentFlags().StringVar(&clientCmdFlags.TokenFile, "token-file", "", "File the access token is stored in (default: ~/.codevault/token)")

	clientProjectsCmd.Flags().StringVar(&clientProjectsFlags.Language, "language", "", "Only show projects in this language")
	clientProjectsCmd.Flags().StringVar(&clientProjectsFlags.Difficulty, "difficulty", "", "Only show projects of this difficulty (Beginner, Intermediate, Advanced)")
	clientProjectsCmd.Flags().StringVar(&clientProjectsFlags.Tag, "tag", "", "Only show projects with this tag")

	clientCmd.AddCommand(clientLoginCmd, clientWhoamiCmd, clientLogoutCmd, clientProjectsCmd, clientGuideCmd, clientExplainCmd)
	rootCmd.AddCommand(clientCmd)
}

func serverURL() string {
	if clientCmdFlags.Server != "" {
		return clientCmdFlags.Server
	}
	if env := os.Getenv("CODEVAULT_SERVER"); env != "" {
		return env
	}
	return "http://localhost:8080"
}

func newClientSession() (*client.Session, error) {
	path := clientCmdFlags.TokenFile
	if path == "" {
		var err error
		path, err = client.DefaultTokenPath()
		if err != nil {
			return nil, err
		}
	}
	log.Debug("Using token file", "path", path, "server", serverURL())
	return client.NewSession(client.New(serverURL()), client.NewFileStore(path)), nil
}

// authenticatedClient restores the session and returns the client with its token.
func authenticatedClient(cmd *cobra.Command) (*client.Client, string, error) {
	session, err := newClientSession()
	if err != nil {
		return nil, "", err
	}
	if state := session.Init(cmd.Context()); state.User == nil {
		return nil, "", errNotLoggedIn
	}
	return session.API(), session.Token(), nil
}

func readAccessKey() (string, error) {
	if key := os.Getenv("CODEVAULT_ACCESS_KEY"); key != "" {
		return key, nil
	}

	fd := int(os.Stdin.Fd()) //nolint:gosec
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal to read the access key from, set CODEVAULT_ACCESS_KEY")
	}

	fmt.Fprint(os.Stderr, "Access key: ") //nolint:errcheck
	key, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) //nolint:errcheck
	if err != nil {
		return "", fmt.Errorf("failed to read access key: %w", err)
	}
	return string(key), nil
}

func deviceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "cli"
	}
	return "cli@" + host
}
