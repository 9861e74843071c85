package env

type Args struct {
	Test      *bool
	Verbose   *bool
	NoWow     *bool
	NoMqtt    *bool
	NoDb      *bool
	Speedon   *bool
	Diron     *bool
	Rainon    *bool
	Batteryon *bool
	Bus       *string
}
