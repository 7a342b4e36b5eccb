//go:build !testbypass

package httpserver

func (s *Server) registerTestBypassRoutes() {}
