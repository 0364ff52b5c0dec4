package main

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	flag "github.com/spf13/pflag"
)

const workflowHint = "Workflow:\nUpdate -> Store -> Recent"

// Operation is the single action selected by an invocation
type Operation int

const (
	OpNone Operation = iota
	OpRefresh
	OpLookupHandle
	OpLookupID
	OpCacheSync
	OpCacheCount
	OpRecent
)

func (op Operation) String() string {
	switch op {
	case OpRefresh:
		return "refresh"
	case OpLookupHandle:
		return "lookup-by-handle"
	case OpLookupID:
		return "lookup-by-id"
	case OpCacheSync:
		return "cache-sync"
	case OpCacheCount:
		return "cache-count"
	case OpRecent:
		return "recent"
	default:
		return "none"
	}
}

// operationFlags maps each operation flag to the operation it selects
var operationFlags = []struct {
	name string
	op   Operation
}{
	{"update", OpRefresh},
	{"n", OpLookupHandle},
	{"id", OpLookupID},
	{"store", OpCacheSync},
	{"store-count", OpCacheCount},
	{"recent", OpRecent},
}

var (
	// ErrUsage is wrapped by every invocation error
	ErrUsage = errors.New("error: invalid usage")

	validID     = regexp.MustCompile(`^[0-9]+$`)
	validHandle = regexp.MustCompile(`^@?[A-Za-z0-9_]{1,15}$`)
)

func usageErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// Invocation is a parsed command line
type Invocation struct {
	Op     Operation
	Handle string
	IDs    []string
	Recent int
}

func addOperationFlags(flags *flag.FlagSet) {
	flags.Bool("update", false, "fetch followers and record unfollows")
	flags.String("n", "", "look up a user by handle")
	flags.String("id", "", "look up users by id (comma separated)")
	flags.Bool("store", false, "cache identities of uncached followers")
	flags.Bool("store-count", false, "print the number of cached users")
	flags.Int("recent", 0, "resolve the N most recent unfollowers, given as --recent=N (default 10)")
	flags.Lookup("recent").NoOptDefVal = "0"
}

// ParseInvocation picks the single operation selected by flags. No
// operation flag yields OpNone.
func ParseInvocation(flags *flag.FlagSet) (*Invocation, error) {
	inv := &Invocation{}

	var selected []string
	for _, f := range operationFlags {
		if flags.Changed(f.name) {
			selected = append(selected, "--"+f.name)
			inv.Op = f.op
		}
	}
	if len(selected) > 1 {
		return nil, usageErrorf("only one of %s may be given", strings.Join(selected, ", "))
	}

	var err error
	switch inv.Op {
	case OpLookupHandle:
		inv.Handle, err = flags.GetString("n")
		if err != nil {
			return nil, err
		}
		if !validHandle.MatchString(inv.Handle) {
			return nil, usageErrorf("invalid handle %q", inv.Handle)
		}
		inv.Handle = strings.TrimPrefix(inv.Handle, "@")
	case OpLookupID:
		raw, err := flags.GetString("id")
		if err != nil {
			return nil, err
		}
		for _, id := range strings.Split(raw, ",") {
			id = strings.TrimSpace(id)
			if !validID.MatchString(id) {
				return nil, usageErrorf("invalid user id %q", id)
			}
			inv.IDs = append(inv.IDs, id)
		}
	case OpRecent:
		inv.Recent, err = flags.GetInt("recent")
		if err != nil {
			return nil, err
		}
		if inv.Recent < 0 {
			return nil, usageErrorf("--recent must be positive")
		}
	}

	return inv, nil
}
