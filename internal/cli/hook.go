package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/todd/internal/logger"
	"github.com/glorpus-work/todd/pkg/errors"
	"github.com/glorpus-work/todd/pkg/hooks"
)

// NewHookCmd creates the hook command with subcommands
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Work with build hooks",
		Long:  "Scaffold the tengo scripts a catalog entry can run before and after its build",
	}

	cmd.AddCommand(newHookTemplateCmd())

	return cmd
}

func newHookTemplateCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template TYPE",
		Short: "Print a hook script template",
		Long:  "Print a commented tengo script for a hook type (" + hookTypeList() + "), or write it to --output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hookType := hooks.HookType(args[0])
			if !hookType.Valid() {
				return hooks.ErrUnsupportedHookType(hookType)
			}
			content := hooks.HookTemplate(hookType) + "\n"

			if output == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), content)
				return err
			}
			if ext := filepath.Ext(output); ext != hooks.HookFileExtension {
				return errors.Wrapf(errors.ErrInvalidPath, "hook scripts must end in %s, got %q", hooks.HookFileExtension, ext)
			}
			if err := writeNew(output, content); err != nil {
				return errors.Wrap(err, "failed to write hook template")
			}
			logger.Success("Hook template written", logger.Fields{"type": string(hookType), "path": output})
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the template to this file instead of stdout")

	return cmd
}

// writeNew refuses to overwrite an existing file.
func writeNew(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func hookTypeList() string {
	names := make([]string, 0, len(hooks.Types))
	for _, t := range hooks.Types {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}
