// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"errors"
	"fmt"
	"strings"
)

// TransactionFailedError means the contract refused the transaction, either
// during gas estimation or by reverting on chain. It is never retried.
type TransactionFailedError struct {
	Reason string
	Cause  error
}

func (e *TransactionFailedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transaction failed: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("transaction failed: %s", e.Reason)
}

func (e *TransactionFailedError) Unwrap() error { return e.Cause }

// IsTransactionFailed reports whether err is a contract-level failure as
// opposed to a transient RPC problem.
func IsTransactionFailed(err error) bool {
	var tf *TransactionFailedError
	return errors.As(err, &tf)
}

// isRevert detects contract-logic rejections surfaced by the RPC during
// gas estimation or call execution.
func isRevert(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution reverted") ||
		strings.Contains(msg, "always failing transaction") ||
		strings.Contains(msg, "invalid opcode")
}

// isRateLimited detects rate-limit responses from public RPC providers.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "rate limit")
}
