package gateway_integration_config

// Version is reported to the gateway as part of the client identity.
const Version = "1.2.0"
