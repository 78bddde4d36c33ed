// Package provider defines the pluggable adapter contract for upstream
// inference services: the Provider interface, the explicit Registry the
// dispatcher resolves names against, and the shared parameter-validation
// machinery (open caller map in, clamped known fields plus verbatim
// passthrough out). Each adapter (aliyun, deepseek) owns its model list,
// numeric bounds, wire schema, and response normalization; the shape of
// validation is shared here so adding a provider cannot silently diverge
// from the contract.
package provider
