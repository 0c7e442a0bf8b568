package version

// Current is the version reported by the CLI and the /api/health endpoint.
const Current = "0.3.0"
