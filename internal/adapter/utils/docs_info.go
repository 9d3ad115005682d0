// Package utils holds small helpers shared by the HTTP layer.
//
// Local dependencies for the optional backends:
//
//	docker run -p 6379:6379 -d redis
//	docker run -p 6333:6333 -p 6334:6334 -v vectorDBData:/qdrant/storage qdrant/qdrant
package utils
