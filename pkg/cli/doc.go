// Package cli provides the omniverlay command-line interface.
//
// Every command loads the configuration, registers the built-in extensions
// and runs startup before doing its work, so each invocation sees the
// profile and layout stored on disk. Logs are written to stderr as JSON;
// command output goes to stdout.
//
// # Commands
//
//	omniverlay extensions list [--json]
//	omniverlay extensions enable Performance
//	omniverlay extensions disable Performance
//	omniverlay extensions move Performance --x 10 --y 20
//	omniverlay extensions stale
//
//	omniverlay profile list|current
//	omniverlay profile add [NAME]
//	omniverlay profile switch NAME
//
//	omniverlay layout list|current
//	omniverlay layout add [NAME]
//	omniverlay layout switch NAME
//
//	omniverlay run [--metrics-addr :9090]
//
// Switching only lasts for the invocation. To work against another profile
// or layout pass --profile or --layout, or set the defaults in config.yaml.
//
// # Configuration
//
//	export OMNIVERLAY_DATA_DIR="$HOME/.omniverlay"
//	# Or use --data-dir
package cli
