// cmd/unibrowse/commands.go
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	coursebrowser "uni-directory/internal/browsers/course-browser"
	programmeprofile "uni-directory/internal/browsers/programme-profile"
	universitybrowser "uni-directory/internal/browsers/university-browser"
	universityprofile "uni-directory/internal/browsers/university-profile"
	"uni-directory/internal/common/config"
	"uni-directory/internal/query"
	"uni-directory/pkg/registry"
)

func requireEnabled(cfg *config.Config, name string) error {
	if !config.IsBrowserEnabled(cfg, name) {
		return fmt.Errorf("%s is disabled in configuration", name)
	}
	return nil
}

func coursesCmd(opts *rootOptions) *cobra.Command {
	var (
		deepLink string
		search   string
		filters  map[string]string
	)
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Interactive programme listing",
		Long: `Starts a listing session and reads commands from stdin, one per line.
Type 'help' in the session for the command list.

The starting state comes from --query, a URL query string such as
"search=engineering&award_level=Bachelor&page=2", then --search and --filter.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := requireEnabled(a.cfg, coursebrowser.BrowserName); err != nil {
					return err
				}

				codec := query.NewURLCodec(a.registry.Keys(registry.CollectionProgrammes)...)
				initial := codec.Encode(codec.DecodeQuery(deepLink))
				if search != "" {
					initial[query.SearchKey] = search
					delete(initial, query.PageKey)
				}
				for k, v := range filters {
					initial[k] = v
					delete(initial, query.PageKey)
				}

				handler := coursebrowser.NewHandler(
					coursebrowser.LoadConfig(config.GetBrowserConfig(a.cfg, coursebrowser.BrowserName)),
					a.programmeFetcher(),
					a.api,
					a.registry,
					initial,
					a.log,
				)
				defer handler.Close()

				return handler.Execute(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&deepLink, "query", "", "starting state as a URL query string")
	cmd.Flags().StringVar(&search, "search", "", "starting search term")
	cmd.Flags().StringToStringVar(&filters, "filter", nil, "starting filters, e.g. --filter award_level=Bachelor")
	return cmd
}

func universitiesCmd(opts *rootOptions) *cobra.Command {
	input := &universitybrowser.Input{}
	cmd := &cobra.Command{
		Use:   "universities",
		Short: "List institutions, filtered by name, region and type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := requireEnabled(a.cfg, universitybrowser.BrowserName); err != nil {
					return err
				}
				handler := universitybrowser.NewHandler(universitybrowser.LoadConfig(a.cfg.API), a.api, a.log)
				out, err := handler.Execute(ctx, input)
				if err != nil {
					return err
				}
				universitybrowser.Render(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input.Search, "search", "", "match name or head office")
	cmd.Flags().StringVar(&input.Region, "region", "", "exact head office")
	cmd.Flags().StringVar(&input.Type, "type", "", "exact university type")
	return cmd
}

func programmeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "programme <id>",
		Short: "Show one programme and its course structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := requireEnabled(a.cfg, programmeprofile.BrowserName); err != nil {
					return err
				}
				handler := programmeprofile.NewHandler(programmeprofile.LoadConfig(a.cfg.API), a.api, a.log)
				out, err := handler.Execute(ctx, &programmeprofile.Input{ProgrammeID: args[0]})
				if err != nil {
					return err
				}
				programmeprofile.Render(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func universityCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "university <id>",
		Short: "Show one institution with a preview of its programmes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := requireEnabled(a.cfg, universityprofile.BrowserName); err != nil {
					return err
				}
				cfg := universityprofile.LoadConfig(a.cfg.API, config.GetBrowserConfig(a.cfg, universityprofile.BrowserName))
				handler := universityprofile.NewHandler(cfg, a.api, a.log)
				out, err := handler.Execute(ctx, &universityprofile.Input{UniversityID: args[0]})
				if err != nil {
					return err
				}
				universityprofile.Render(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}
