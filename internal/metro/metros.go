package metro

// builtinMetros lists the metro areas known to the resolver. Every borough and
// neighborhood maps straight to its metro, never to an intermediate level.
var builtinMetros = []Metro{
	{
		Name: "new york",
		Aliases: []string{
			"new york city", "nyc", "manhattan", "brooklyn", "queens", "bronx", "the bronx", "staten island",
			// queens
			"forest hills", "astoria", "flushing", "jamaica", "long island city", "jackson heights", "elmhurst",
			"corona", "bayside", "ridgewood", "rego park", "kew gardens", "woodside", "sunnyside",
			"far rockaway", "st albans", "richmond hill", "ozone park",
			// brooklyn
			"williamsburg", "park slope", "bushwick", "bay ridge", "flatbush", "bensonhurst", "crown heights",
			"greenpoint", "coney island", "sheepshead bay", "bedford-stuyvesant", "canarsie",
			// manhattan
			"harlem", "east harlem", "upper east side", "upper west side", "chelsea", "greenwich village",
			"soho", "tribeca", "inwood", "washington heights", "lower east side",
			// bronx
			"riverdale", "fordham", "pelham bay", "throgs neck", "mott haven", "co-op city",
			// staten island
			"st george", "tottenville", "great kills",
		},
		ZipPrefixes: []string{"100", "101", "102", "103", "104", "110", "111", "112", "113", "114", "116"},
	},
	{
		Name: "los angeles",
		Aliases: []string{
			"la", "hollywood", "north hollywood", "van nuys", "venice", "encino", "sherman oaks", "studio city",
			"silver lake", "echo park", "westwood", "boyle heights", "san pedro", "wilmington", "reseda",
			"panorama city", "canoga park", "woodland hills",
		},
		ZipPrefixes: []string{"900", "901", "902", "903", "904", "905", "906", "907", "908", "910", "911", "912", "913", "914", "915", "916", "917", "918"},
	},
	{
		Name: "chicago",
		Aliases: []string{
			"lincoln park", "hyde park", "wicker park", "logan square", "lakeview", "rogers park", "pilsen",
			"bronzeville", "uptown", "englewood",
		},
		ZipPrefixes: []string{"606", "607", "608"},
	},
	{
		Name: "philadelphia",
		Aliases: []string{
			"philly", "germantown", "fishtown", "manayunk", "roxborough", "kensington", "south philadelphia",
			"west philadelphia", "chestnut hill",
		},
		ZipPrefixes: []string{"190", "191"},
	},
	{
		Name: "boston",
		Aliases: []string{
			"dorchester", "roxbury", "west roxbury", "jamaica plain", "south boston", "charlestown", "east boston",
			"brighton", "allston", "mattapan", "roslindale",
		},
		ZipPrefixes: []string{"021", "022"},
	},
	{
		Name: "san francisco",
		Aliases: []string{
			"sf", "mission district", "the mission", "noe valley", "haight-ashbury", "sunset district",
			"richmond district", "pacific heights", "nob hill", "bayview",
		},
		ZipPrefixes: []string{"940", "941"},
	},
	{
		Name: "washington",
		Aliases: []string{
			"washington dc", "dc", "district of columbia", "georgetown", "anacostia", "adams morgan", "foggy bottom",
		},
		ZipPrefixes: []string{"200", "202", "203", "204", "205"},
	},
	{
		Name: "houston",
		Aliases: []string{
			"the heights", "montrose", "river oaks", "third ward", "fifth ward", "kingwood", "clear lake",
		},
		ZipPrefixes: []string{"770", "772"},
	},
	{
		Name: "miami",
		Aliases: []string{
			"little havana", "little haiti", "coconut grove", "wynwood", "brickell", "overtown", "allapattah",
		},
		ZipPrefixes: []string{"331", "332"},
	},
	{
		Name: "seattle",
		Aliases: []string{
			"ballard", "fremont", "capitol hill", "queen anne", "west seattle", "rainier valley", "beacon hill",
			"wallingford", "university district",
		},
		ZipPrefixes: []string{"980", "981"},
	},
}
