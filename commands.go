package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/spf13/cobra"
	"github.com/tournevent/stashop/internal/config"
	"github.com/tournevent/stashop/pkg/webservice"
	"go.uber.org/zap"
)

var listFlags struct {
	ids     bool
	display []string
	filters []string
	sort    []string
	limit   int
	offset  int
}

func addResourceCommands(root *cobra.Command) {
	getCmd := &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Print one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, client *webservice.Client) error {
				doc, err := client.Resource(args[0]).Get(ctx, id)
				if err != nil {
					return err
				}
				return writeXML(cmd.OutOrStdout(), doc)
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "Print the records or ids of a collection",
		Args:  cobra.ExactArgs(1),
		RunE:  runList,
	}
	listCmd.Flags().BoolVar(&listFlags.ids, "ids", false, "print ids only, one per line")
	listCmd.Flags().StringSliceVar(&listFlags.display, "display", nil, "fields to return, or \"full\"")
	listCmd.Flags().StringArrayVar(&listFlags.filters, "filter", nil, "field=value filter (repeatable)")
	listCmd.Flags().StringArrayVar(&listFlags.sort, "sort", nil, "field[:ASC|DESC] sort key (repeatable)")
	listCmd.Flags().IntVar(&listFlags.limit, "limit", 0, "maximum number of records")
	listCmd.Flags().IntVar(&listFlags.offset, "offset", 0, "records to skip (requires --limit)")

	schemaCmd := &cobra.Command{
		Use:   "schema <resource>",
		Short: "Print the blank schema of a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client *webservice.Client) error {
				doc, err := client.Resource(args[0]).GetSchema(ctx)
				if err != nil {
					return err
				}
				return writeXML(cmd.OutOrStdout(), doc)
			})
		},
	}

	createCmd := &cobra.Command{
		Use:   "create <resource> <file>",
		Short: "Create a record from an XML file (\"-\" reads stdin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, client *webservice.Client) error {
				created, err := client.Resource(args[0]).Create(ctx, doc)
				if err != nil {
					return err
				}
				return writeXML(cmd.OutOrStdout(), created)
			})
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update <resource> <id> <file>",
		Short: "Replace a record with an XML file (\"-\" reads stdin)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			doc, err := readDocument(cmd.InOrStdin(), args[2])
			if err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, client *webservice.Client) error {
				updated, err := client.Resource(args[0]).Update(ctx, id, doc)
				if err != nil {
					return err
				}
				return writeXML(cmd.OutOrStdout(), updated)
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, client *webservice.Client) error {
				ok, err := client.Resource(args[0]).Delete(ctx, id)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("delete %s/%d: not confirmed by the shop", args[0], id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s/%d\n", args[0], id)
				return nil
			})
		},
	}

	fixturesCmd := &cobra.Command{
		Use:   "fixtures [resource]",
		Short: "List fixture resources, or the record ids of one resource",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFixtures,
	}

	root.AddCommand(getCmd, listCmd, schemaCmd, createCmd, updateCmd, deleteCmd, fixturesCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	opts, err := listOptions()
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, client *webservice.Client) error {
		resource := client.Resource(args[0])
		out := cmd.OutOrStdout()

		if listFlags.ids {
			ids, err := resource.IDs(ctx, opts)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		}

		docs, err := resource.List(ctx, opts)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if err := writeXML(out, doc); err != nil {
				return err
			}
		}
		return nil
	})
}

func runFixtures(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(func(c *config.Config) { c.UseFixtures = true })
	if err != nil {
		return err
	}
	store := fixtureStore(cfg)
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		names, err := store.Resources()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	ids, err := store.IDs(args[0])
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}

// withClient sets up configuration, logging and tracing, then runs fn with
// a client for the configured shop.
func withClient(cmd *cobra.Command, fn func(context.Context, *webservice.Client) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	return fn(ctx, initClient(cfg, logger, tracer))
}

func listOptions() (webservice.ListOptions, error) {
	opts := webservice.ListOptions{
		Display: listFlags.display,
		Limit:   listFlags.limit,
		Offset:  listFlags.offset,
	}

	filters, err := parseFilters(listFlags.filters)
	if err != nil {
		return opts, err
	}
	opts.Filters = filters

	sortFields, err := parseSort(listFlags.sort)
	if err != nil {
		return opts, err
	}
	opts.Sort = sortFields

	return opts, nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", webservice.ErrInvalidID, s)
	}
	return id, nil
}

// parseFilters turns field=value pairs into a filter map.
func parseFilters(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filters := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		field, value, ok := strings.Cut(pair, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q: want field=value", pair)
		}
		filters[field] = value
	}
	return filters, nil
}

// parseSort turns field[:ASC|DESC] keys into sort fields.
func parseSort(keys []string) ([]webservice.SortField, error) {
	fields := make([]webservice.SortField, 0, len(keys))
	for _, key := range keys {
		field, dir, _ := strings.Cut(key, ":")
		if field == "" {
			return nil, fmt.Errorf("invalid sort key %q", key)
		}
		sf := webservice.SortField{Field: field}
		switch strings.ToUpper(dir) {
		case "", string(webservice.Ascending):
			sf.Direction = webservice.Ascending
		case string(webservice.Descending):
			sf.Direction = webservice.Descending
		default:
			return nil, fmt.Errorf("invalid sort direction %q: want ASC or DESC", dir)
		}
		fields = append(fields, sf)
	}
	return fields, nil
}

// readDocument reads an entity document from path, or from stdin when path
// is "-". A document wrapped in the prestashop envelope is unwrapped.
func readDocument(stdin io.Reader, path string) (*etree.Element, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	root, err := webservice.Parse("read", data)
	if err != nil {
		return nil, err
	}
	if root.Tag == webservice.EnvelopeTag {
		return webservice.UnwrapSingle("read", root)
	}
	return root, nil
}

func writeXML(w io.Writer, el *etree.Element) error {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}
