// Package api provides the multi-region guestbook REST API.
//
//	@title			Multi-Region Guestbook API
//	@version		1.0
//	@description	Guestbook API served from every region. Reads are answered from the regional replica; writes are replayed to the primary region with a fly-replay header.
//	@BasePath		/
package api
