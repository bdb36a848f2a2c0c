// Package policy gates seeding runs with Open Policy Agent (OPA) rules.
//
// Before the engine mutates a device, the gate evaluates the parsed run
// specification against Rego policies. Built-in policies guard against
// destructive clears on physical devices and oversized random workloads;
// custom policies can be loaded from .rego or .json files and reloaded on
// change.
//
// A violation with error or critical severity denies the run. Warning and
// info violations are logged and the run proceeds.
package policy
