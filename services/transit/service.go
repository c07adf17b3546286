package transit

// ServiceDates resolves and memoizes the active dates of each service.
// It is not safe for concurrent use.
type ServiceDates struct {
	calendars map[string]*ServiceCalendar
	cache     map[string][]string
}

// NewServiceDates creates a resolver over the supplied calendars, keyed by service id.
func NewServiceDates(calendars map[string]*ServiceCalendar) *ServiceDates {
	return &ServiceDates{
		calendars: calendars,
		cache:     map[string][]string{},
	}
}

// Dates returns the active dates of the service, resolving them on first use.
// Unknown services have no dates.
func (sd *ServiceDates) Dates(serviceID string) []string {
	if dates, ok := sd.cache[serviceID]; ok {
		return dates
	}

	var dates []string
	if sc, ok := sd.calendars[serviceID]; ok {
		dates = sc.Dates()
	}
	sd.cache[serviceID] = dates
	return dates
}
