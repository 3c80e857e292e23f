package graphql

import (
	"context"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
)

// ExecuteQuery runs query against schema. Root fields of one query share a
// single network load.
func ExecuteQuery(ctx context.Context, schema graphql.Schema, query string, variables map[string]any, operationName string) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  query,
		VariableValues: variables,
		OperationName:  operationName,
		Context:        withRequestCache(ctx),
	})
}

// ExecuteWithDepthLimit rejects queries nested deeper than maxDepth before
// running them. A maxDepth of zero or less disables the check.
func ExecuteWithDepthLimit(ctx context.Context, schema graphql.Schema, query string, variables map[string]any, operationName string, maxDepth int) *graphql.Result {
	if maxDepth > 0 {
		if err := ValidateQueryDepth(query, maxDepth); err != nil {
			return &graphql.Result{
				Errors: []gqlerrors.FormattedError{gqlerrors.FormatError(err)},
			}
		}
	}
	return ExecuteQuery(ctx, schema, query, variables, operationName)
}
