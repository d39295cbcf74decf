// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// Core packages return plain sentinel errors; the command layer wraps them in
// an ActionableError that carries the failed operation, the resource involved,
// and remediation suggestions rendered below the message.
package issue
