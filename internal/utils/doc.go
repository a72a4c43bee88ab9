// Package utils holds the HTTP plumbing shared by the provider adapters.
package utils
