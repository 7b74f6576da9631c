// File: utils/constants.go
package utils

// SearchCachePrefix is the prefix used for Redis search cache keys.
const SearchCachePrefix = "search:"

// ContextKeyRequestID is the gin context key holding the request id.
const ContextKeyRequestID = "requestID"
