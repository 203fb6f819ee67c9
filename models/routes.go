package models

import "sort"

// Route is a client-side application path a bot action may navigate to.
type Route string

const (
	RouteHome      Route = "/"
	RouteServices  Route = "/services"
	RoutePortfolio Route = "/portfolio"
	RouteAbout     Route = "/about"
	RouteContact   Route = "/contact"
)

// CaseRoute returns the detail route of a portfolio case, e.g. "/portfolio/p1".
func CaseRoute(caseID string) Route {
	return Route(string(RoutePortfolio) + "/" + caseID)
}

// validRoutes is the closed set of paths any generated action may carry.
var validRoutes = map[Route]bool{
	RouteHome:       true,
	RouteServices:   true,
	RoutePortfolio:  true,
	RouteAbout:      true,
	RouteContact:    true,
	CaseRoute("p1"): true,
	CaseRoute("p2"): true,
	CaseRoute("p3"): true,
	CaseRoute("p4"): true,
	CaseRoute("p5"): true,
}

// IsValidRoute reports whether path belongs to the closed route set.
func IsValidRoute(path string) bool {
	return validRoutes[Route(path)]
}

// ValidRoutes returns the route set in lexical order.
func ValidRoutes() []Route {
	routes := make([]Route, 0, len(validRoutes))
	for r := range validRoutes {
		routes = append(routes, r)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i] < routes[j] })
	return routes
}
