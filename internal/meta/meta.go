package meta

// CLIName is the binary name used for config paths, env prefixes and the User-Agent.
const CLIName = "loopctl"

// EnvPrefix is the prefix applied to all environment overrides.
const EnvPrefix = "LOOPCTL"
