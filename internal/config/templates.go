package config

// DefaultProfileTemplate is the fully commented default profile written by `config init`.
const DefaultProfileTemplate = `# sysproxy profile
# Apply with: sysproxy apply -f <this file>

# Logging goes to stderr so command output stays clean.
logging:
  level: warn            # debug, info, warn, error
  format: text           # text or json
  output: stderr         # stdout, stderr or a file path

# macOS only: network service to configure (e.g. "Wi-Fi").
# Leave empty to use the service of the interface carrying the default route.
# service: "Wi-Fi"

proxy:
  enable: true           # false only flips the enable flag; ports are kept in the OS store
  host: "127.0.0.1"      # one host shared by every protocol
  http_port: 7890        # omit a port to leave that protocol unconfigured
  https_port: 7890
  socks_port: 7891       # on Windows this is the single ProxyServer port
  bypass: "localhost,127.0.0.1,::1"   # comma separated, order is preserved
`
