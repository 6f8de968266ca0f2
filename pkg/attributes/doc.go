// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package attributes provides request and response objects that expose a
// CoAP message through decoded option attributes, and the method set a
// configurable resource accepts.
package attributes
