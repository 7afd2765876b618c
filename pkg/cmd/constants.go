package cmd

const (
	RootCmdName  = "dealbroker"
	RootCmdShort = "Vehicle lease deals and demos"
	RootCmdLong  = `dealbroker runs the lease brokerage API and browses its listings.

Settings come from flags, DEALBROKER_* environment variables and a .env
file. DATABASE_URL, PORT, ADMIN_PASSWORD and the AWS_* variables are read
as well.`

	ServeCmdName  = "serve"
	ServeCmdShort = "Start the listing, inquiry and admin API"
	ServeCmdLong  = `Start the HTTP API serving deals and demos, vehicle inquiries, lead
forms, image uploads and the admin login.`

	ListingsCmdName  = "listings [deals|demos]"
	ListingsCmdShort = "Print listings after applying the facet filter"
	ListingsCmdLong  = `Load deals or demos from a running API and print the ones matching the
make, price and tag filters.`

	VersionCmdName  = "version"
	VersionCmdShort = "Print the version"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"
