// Package command is the framework every gcompute verb runs on. A verb is
// described by a Spec and executed by Run, which takes care of the safety
// prompt, waiting for operations, printing and the exit status.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/batch"
	"github.com/yaroslav/gcompute/internal/config"
	"github.com/yaroslav/gcompute/internal/format"
	"github.com/yaroslav/gcompute/internal/logging"
	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/internal/operations"
	"github.com/yaroslav/gcompute/internal/prompt"
	"github.com/yaroslav/gcompute/models"
)

// Exit statuses.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Handler does the work of a verb.
type Handler func(ctx context.Context, inv *Invocation, args []string) (*Result, error)

// Spec describes a verb.
type Spec struct {
	// Name is the verb (e.g., "deleteinstance")
	Name string

	// Collection is the plural collection the verb works on
	Collection string

	// SafetyPrompt, when set, is asked before the handler runs unless
	// --force is given (e.g., "Delete instance")
	SafetyPrompt string

	// Resource controls how results are printed
	Resource format.ResourceSpec

	// ForceAsync skips waiting on the result even in synchronous mode
	ForceAsync bool

	// Handler does the work
	Handler Handler
}

// Result is what a handler produced.
type Result struct {
	// Value is the resource, operation or list to print
	Value models.Resource

	// Errors are the failures of individual batch requests
	Errors []error

	// List, when set, prints Value as a sorted and truncated list
	List *format.ListOptions

	// Silent suppresses printing of Value
	Silent bool
}

// Invocation is the runtime a verb executes in.
type Invocation struct {
	Config   *config.Global
	Client   *compute.Client
	Namer    *names.Namer
	Printer  *format.Printer
	Prompter *prompt.Prompter
	Executor *batch.Executor
	Waiter   *operations.Waiter
	Logger   *zap.Logger
	Stdout   io.Writer
	Stderr   io.Writer

	// Force skips safety prompts and confirmations
	Force bool

	// Zone is the --zone flag of the verb, if it has one
	Zone string
}

// Project returns the project the invocation operates on.
func (inv *Invocation) Project() string {
	return inv.Client.Project
}

// Synchronous reports whether operations are waited on.
func (inv *Invocation) Synchronous() bool {
	return inv.Config.SynchronousMode
}

// Run executes a verb and returns its exit status.
//
// The flow is:
// 1. Ask the safety prompt, if any, unless Force is set
// 2. Call the handler
// 3. In synchronous mode, wait on a returned operation
// 4. Print the result, then every batch error
// 5. Fail if anything went wrong, including operations that finished with
//    errors
//
// Parameters:
//   - ctx: Context for cancellation; its clock drives operation polling
//   - inv: The runtime of this invocation
//   - spec: The verb to run
//   - args: Positional arguments
//
// Returns:
//   - int: ExitSuccess or ExitFailure
func Run(ctx context.Context, inv *Invocation, spec Spec, args []string) int {
	ctx = logging.AddFields(logging.WithLogger(ctx, inv.Logger), zap.String(logging.FieldCommand, spec.Name))
	logger := logging.FromContext(ctx)

	if spec.SafetyPrompt != "" && !inv.Force {
		if !inv.Prompter.SafetyPrompt(spec.SafetyPrompt, args) {
			inv.printError(ErrAborted)
			return ExitFailure
		}
	}

	result, err := spec.Handler(ctx, inv, args)
	if err != nil {
		inv.printError(err)
		return ExitFailure
	}
	if result == nil {
		result = &Result{Silent: true}
	}

	synchronous := inv.Synchronous() && !spec.ForceAsync
	value := result.Value
	if synchronous && value != nil && value.IsOperation() {
		waited, err := inv.Waiter.Wait(ctx, value, spec.Collection)
		if err != nil {
			inv.printError(err)
			return ExitFailure
		}
		value = waited[0]
		if len(waited) > 1 {
			value = models.MakeListResult(waited, "operationList")
		}
	}

	if !result.Silent && value != nil {
		var printErr error
		if result.List != nil {
			printErr = inv.Printer.PrintList(value, spec.Resource, *result.List)
		} else {
			printErr = inv.Printer.PrintResult(value, spec.Resource)
		}
		if printErr != nil {
			inv.printError(printErr)
			return ExitFailure
		}
	}

	for _, batchErr := range result.Errors {
		inv.printError(batchErr)
	}

	if len(result.Errors) > 0 {
		return ExitFailure
	}
	if synchronous && ErrorInResult(value) {
		logger.Debug("Result carries operation errors")
		return ExitFailure
	}
	return ExitSuccess
}

// ErrorInResult reports whether result is an operation, or a list holding
// an operation, that finished with errors.
func ErrorInResult(result models.Resource) bool {
	if result == nil {
		return false
	}
	ops := []models.Resource{result}
	if result.IsList() {
		ops = result.Items()
	}
	for _, op := range ops {
		if op.IsOperation() && op.HasOperationErrors() {
			return true
		}
	}
	return false
}

// printError writes err to Stderr. API errors are prefixed with "Error:"
// and their raw body is logged at debug level.
func (inv *Invocation) printError(err error) {
	var httpErr *compute.HTTPError
	if errors.As(err, &httpErr) {
		fmt.Fprintf(inv.Stderr, "Error: %s\n", httpErr.Error())
		inv.Logger.Debug("API error response",
			zap.Int(logging.FieldStatusCode, httpErr.StatusCode),
			zap.ByteString("body", httpErr.Body),
		)
		return
	}
	fmt.Fprintln(inv.Stderr, err.Error())
}

// ExecuteBatch runs requests through the executor and wraps the outcome
// into an operationList result.
func (inv *Invocation) ExecuteBatch(ctx context.Context, requests []batch.Request, collection string) *Result {
	results, errs := inv.Executor.Execute(ctx, requests, collection)
	return &Result{
		Value:  models.MakeListResult(results, "operationList"),
		Errors: errs,
	}
}
