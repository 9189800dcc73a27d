package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pay-theory/cosmorm/internal/expr"
	"github.com/pay-theory/cosmorm/pkg/condition"
	"github.com/pay-theory/cosmorm/pkg/core"
	customerrors "github.com/pay-theory/cosmorm/pkg/errors"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	OrderBy   string
	Direction string
	Select    []string
	Limit     int
	Offset    int
	Count     bool
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <filter-file|->",
		Short: "Compile a filter document to a Cosmos DB SQL statement",
		Long: `Compile a YAML or JSON filter document to the parameterized statement
cosmorm would execute. Use "-" to read the filter from stdin.

Paging flags (--order-by, --direction, --limit, --offset) produce an ordered,
paged select. --count produces a count statement instead.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			paged := cmd.Flags().Changed("order-by") || cmd.Flags().Changed("direction") ||
				cmd.Flags().Changed("limit") || cmd.Flags().Changed("offset")
			return runCompile(opts, args[0], paged, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Select, "select", nil, "fields to project (comma separated)")
	cmd.Flags().StringVar(&opts.OrderBy, "order-by", core.DefaultOrderBy, "field to order by")
	cmd.Flags().StringVar(&opts.Direction, "direction", core.DefaultOrderDirection, "order direction (asc|desc)")
	cmd.Flags().IntVar(&opts.Limit, "limit", core.DefaultLimit, "page size")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of documents to skip")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "emit a count statement")

	return cmd
}

// statementOutput prints as the query followed by one name=value line per parameter
type statementOutput core.Statement

func (s statementOutput) String() string {
	var b strings.Builder
	b.WriteString(s.Query)
	for _, p := range s.Parameters {
		value, err := json.Marshal(p.Value)
		if err != nil {
			value = []byte(fmt.Sprintf("%v", p.Value))
		}
		fmt.Fprintf(&b, "\n%s=%s", p.Name, value)
	}
	return b.String()
}

func runCompile(opts *CompileOptions, source string, paged bool, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format: opts.Format,
		Writer: cmd.OutOrStdout(),
	}
	logger := opts.Logger.With(zap.String("source", source))

	data, err := readSource(source, cmd.InOrStdin())
	if err != nil {
		_ = formatter.Error(ErrCodeReadFailed, err.Error())
		return WrapExitError(ExitCommandError, "reading filter", err)
	}
	logger.Debug("read filter document", zap.Int("bytes", len(data)))

	stmt, err := buildStatement(opts, data, paged)
	if err != nil {
		if !customerrors.IsBadRequest(err) {
			_ = formatter.Error(ErrCodeReadFailed, err.Error())
			return WrapExitError(ExitCommandError, "decoding filter", err)
		}
		_ = formatter.Error(ErrCodeInvalidFilter, err.Error())
		return WrapExitError(ExitFailure, "compiling filter", err)
	}

	logger.Debug("compiled statement",
		zap.String("query", stmt.Query),
		zap.Int("params", len(stmt.Parameters)),
	)

	if formatter.Format == "json" {
		return formatter.Success(stmt)
	}
	return formatter.Success(statementOutput(stmt))
}

func buildStatement(opts *CompileOptions, data []byte, paged bool) (core.Statement, error) {
	filter, err := condition.Parse(data)
	if err != nil {
		return core.Statement{}, err
	}

	switch {
	case opts.Count:
		return expr.CountStatement(filter)
	case paged:
		return expr.PageStatement(filter, &core.QueryOptions{
			Select:         opts.Select,
			OrderBy:        opts.OrderBy,
			OrderDirection: opts.Direction,
			Limit:          opts.Limit,
			Offset:         opts.Offset,
		})
	default:
		return expr.SelectStatement(filter, opts.Select)
	}
}

func readSource(source string, stdin io.Reader) ([]byte, error) {
	if source == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(source)
}
