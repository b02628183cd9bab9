package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// RemotesConfig is the on-disk list of analysis servers kp can talk to.
type RemotesConfig struct {
	Active  string            `toml:"active"`
	Remotes map[string]Remote `toml:"remotes"`
}

// Remote is one analysis server plus the event bus that announces its
// changes to `kp watch`.
type Remote struct {
	URL         string `toml:"url"` // gRPC address
	HTTPURL     string `toml:"http_url,omitempty"`
	Token       string `toml:"token,omitempty"`
	NATSURL     string `toml:"nats_url,omitempty"`
	RedisURL    string `toml:"redis_url,omitempty"`
	Description string `toml:"description,omitempty"`
}

// validate rejects URLs the clients would fail on later.
func (r Remote) validate() error {
	if r.HTTPURL != "" {
		u, err := url.Parse(r.HTTPURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("http url %q must be http:// or https://", r.HTTPURL)
		}
	}
	if r.NATSURL != "" {
		u, err := url.Parse(r.NATSURL)
		if err != nil || (u.Scheme != "nats" && u.Scheme != "tls") {
			return fmt.Errorf("nats url %q must be nats:// or tls://", r.NATSURL)
		}
	}
	if r.RedisURL != "" {
		if _, err := redis.ParseURL(r.RedisURL); err != nil {
			return fmt.Errorf("redis url: %w", err)
		}
	}
	return nil
}

// lookup returns the named remote.
func (c RemotesConfig) lookup(name string) (Remote, error) {
	r, ok := c.Remotes[name]
	if !ok {
		return Remote{}, fmt.Errorf("remote %q not found", name)
	}
	return r, nil
}

func (c RemotesConfig) sortedNames() []string {
	names := make([]string, 0, len(c.Remotes))
	for name := range c.Remotes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func remoteConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "state", "kplan")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "remotes.toml"), nil
}

func loadRemotesConfig() (RemotesConfig, error) {
	path, err := remoteConfigPath()
	if err != nil {
		return RemotesConfig{}, err
	}
	cfg := RemotesConfig{Remotes: map[string]Remote{}}
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
		return RemotesConfig{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if cfg.Remotes == nil {
		cfg.Remotes = map[string]Remote{}
	}
	return cfg, nil
}

func saveRemotesConfig(cfg RemotesConfig) error {
	path, err := remoteConfigPath()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// updateRemotes loads the config, applies fn and saves the result.
// Nothing is written when fn fails.
func updateRemotes(fn func(*RemotesConfig) error) error {
	cfg, err := loadRemotesConfig()
	if err != nil {
		return err
	}
	if err := fn(&cfg); err != nil {
		return err
	}
	return saveRemotesConfig(cfg)
}

var (
	remoteOnce   sync.Once
	cachedRemote Remote
)

// activeRemote returns the profile named by KPLAN_REMOTE, or else the active
// one, loaded once per process. The zero Remote means none is configured.
func activeRemote() Remote {
	remoteOnce.Do(func() {
		cfg, err := loadRemotesConfig()
		if err != nil {
			return
		}
		name := os.Getenv("KPLAN_REMOTE")
		if name == "" {
			name = cfg.Active
		}
		cachedRemote = cfg.Remotes[name]
	})
	return cachedRemote
}

func maskToken(token string) string {
	if len(token) > 8 {
		return token[:8] + "..."
	}
	return token
}

var remoteCmd = &cobra.Command{
	Use:               "remote",
	Short:             "Manage named analysis servers",
	GroupID:           "system",
	PersistentPreRunE: skipClient,
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <grpc-addr>",
	Short: "Add or update a named remote",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		r := Remote{URL: args[1]}
		r.HTTPURL, _ = cmd.Flags().GetString("http-url")
		r.Token, _ = cmd.Flags().GetString("token")
		r.NATSURL, _ = cmd.Flags().GetString("nats")
		r.RedisURL, _ = cmd.Flags().GetString("redis")
		r.Description, _ = cmd.Flags().GetString("description")
		activate, _ := cmd.Flags().GetBool("use")
		if err := r.validate(); err != nil {
			return err
		}

		err := updateRemotes(func(cfg *RemotesConfig) error {
			cfg.Remotes[name] = r
			if activate {
				cfg.Active = name
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "remote %q saved (%s)\n", name, r.URL)
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a named remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		err := updateRemotes(func(cfg *RemotesConfig) error {
			if _, err := cfg.lookup(name); err != nil {
				return err
			}
			delete(cfg.Remotes, name)
			if cfg.Active == name {
				cfg.Active = ""
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "remote %q removed\n", name)
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List remotes; * marks the active one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRemotesConfig()
		if err != nil {
			return err
		}
		if len(cfg.Remotes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no remotes configured")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  NAME\tGRPC\tHTTP\tEVENTS\tTOKEN\tDESCRIPTION")
		for _, name := range cfg.sortedNames() {
			r := cfg.Remotes[name]
			marker := "  "
			if name == cfg.Active {
				marker = "* "
			}
			fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t%s\t%s\n",
				marker, name, r.URL, r.HTTPURL, eventBus(r), maskToken(r.Token), r.Description)
		}
		return w.Flush()
	},
}

// eventBus names the bus `kp watch` would follow for r.
func eventBus(r Remote) string {
	switch {
	case r.NATSURL != "":
		return "nats"
	case r.RedisURL != "":
		return "redis"
	}
	return "-"
}

var remoteUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the active remote (no args clears it)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		if len(args) == 1 {
			name = args[0]
		}
		err := updateRemotes(func(cfg *RemotesConfig) error {
			if name != "" {
				if _, err := cfg.lookup(name); err != nil {
					return err
				}
			}
			cfg.Active = name
			return nil
		})
		if err != nil {
			return err
		}
		if name == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "active remote cleared")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "active remote set to %q\n", name)
		}
		return nil
	},
}

var remoteShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show one remote (defaults to the active one)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRemotesConfig()
		if err != nil {
			return err
		}
		name := cfg.Active
		if len(args) == 1 {
			name = args[0]
		}
		if name == "" {
			return fmt.Errorf("no active remote; specify a name or run 'kp remote use <name>'")
		}
		r, err := cfg.lookup(name)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		suffix := ""
		if name == cfg.Active {
			suffix = " (active)"
		}
		rows := [][2]string{
			{"name", name + suffix},
			{"description", r.Description},
			{"grpc", r.URL},
			{"http", r.HTTPURL},
			{"token", maskToken(r.Token)},
			{"nats_url", r.NATSURL},
			{"redis_url", r.RedisURL},
		}
		for _, row := range rows {
			if row[1] != "" {
				fmt.Fprintf(w, "%s:\t%s\n", row[0], row[1])
			}
		}
		return w.Flush()
	},
}

func init() {
	remoteAddCmd.Flags().String("http-url", "", "HTTP base URL of the remote")
	remoteAddCmd.Flags().String("token", "", "bearer token for authentication")
	remoteAddCmd.Flags().String("nats", "", "NATS URL that kp watch follows")
	remoteAddCmd.Flags().String("redis", "", "Redis URL that kp watch follows")
	remoteAddCmd.Flags().String("description", "", "human-readable description of the remote")
	remoteAddCmd.Flags().Bool("use", false, "make the remote active")

	remoteCmd.AddCommand(remoteAddCmd, remoteRemoveCmd, remoteListCmd, remoteUseCmd, remoteShowCmd)
}
