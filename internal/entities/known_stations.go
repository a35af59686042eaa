package entities

import "sort"

// KnownStations lists the Emilia-Romagna station names the bot can resolve.
// It is kept sorted so that fuzzy matching ties always resolve the same way.
var KnownStations = []string{
	"Accursi Idice",
	"Alfonsine",
	"Alseno",
	"Anzola Ghironda",
	"Arcoveggio",
	"Ariano",
	"Bagnetto Reno",
	"Battiferro Bypass",
	"Bazzano",
	"Beccara Nuova Reno",
	"Bentivoglio",
	"Berceto Baganza",
	"Bevano Adriatica",
	"Bobbio",
	"Bomporto",
	"Bonconvento",
	"Bondanello",
	"Bondeno Panaro",
	"Borello",
	"Boretto",
	"Borgo Tossignano",
	"Borgo Visignolo",
	"Borgoforte",
	"Bova",
	"Brocchetti",
	"Burana",
	"Ca' de Caroli",
	"Cabanne",
	"Cadelbosco",
	"Calcara",
	"Calisese",
	"Camposanto",
	"Canonica Valle",
	"Capoponte",
	"Cardinala Idice",
	"Carignano Po",
	"Casale Monferrato Po",
	"Casalecchio canale",
	"Casalecchio chiusa",
	"Casalecchio tiro a volo",
	"Casalmaggiore",
	"Case Bonini",
	"Casei Gerola Po",
	"Casola Valsenio",
	"Casoni",
	"Cassa Crostolo SIAP",
	"Casse Espansione Enza SIAP",
	"Casse Espansione Enza monte",
	"Castel San Pietro",
	"Castelbolognese",
	"Castell'Arquato",
	"Castell'Arquato Canale",
	"Castellina di Soragna",
	"Castelmaggiore",
	"Castenaso",
	"Castiglione",
	"Castrocaro",
	"Cavanella SIAP",
	"Cedogno",
	"Cento",
	"Centonara",
	"Cesena",
	"Chiavica Bastia Sillaro",
	"Chiavicone Idice",
	"Chiavicone Reno",
	"Ciriano",
	"Coccolia",
	"Codigoro",
	"Codrignano",
	"Colorno AIPO",
	"Compiano",
	"Conca Diga",
	"Concordia sulla Secchia",
	"Corniglio",
	"Correcchio Sillaro",
	"Correcchio canale",
	"Cotignola",
	"Cremona",
	"Crescentino Po",
	"Cusercoli Idro",
	"Diga di Ridracoli",
	"Dosso",
	"Faenza",
	"Fanano",
	"Farini",
	"Ferriere Idro",
	"Ficarolo",
	"Fidenza SIAP",
	"Fiorano",
	"Fiorenzuola d'Arda",
	"Firenzuola idro",
	"Fiscaglia Monte",
	"Fiscaglia Valle",
	"Fiumalbo",
	"Forcelli",
	"Forli'",
	"Fornovo",
	"Fornovo SIAP",
	"Foscaglia Panaro",
	"Fossalta",
	"Fusignano",
	"Gallo",
	"Gandazzolo Reno",
	"Gandazzolo Savena",
	"Gatta",
	"Gorzano",
	"Imola",
	"Impianto Forcelli Lavino",
	"Invaso",
	"Isola Pescaroli SIAP",
	"Isola S.Antonio PO",
	"La Dozza",
	"Langhirano idro",
	"Lavino di Sopra",
	"Lavino di Sotto",
	"Linaro",
	"Loiano Ponte Savena",
	"Lonza",
	"Lugo",
	"Lugo SIAP",
	"Luretta",
	"Marradi",
	"Marsaglia",
	"Marzocchina",
	"Marzolara",
	"Massarolo",
	"Matellica",
	"Meldola",
	"Mercato Saraceno",
	"Mezzano",
	"Mignano Diga",
	"Modena Naviglio",
	"Modigliana",
	"Molato Diga Monte",
	"Montanaro",
	"Monte Cerignone",
	"Morciano di Romagna",
	"Mordano",
	"Navicello",
	"Noceto",
	"Ongina",
	"Ongina Po",
	"Opera Po",
	"Opera Reno Panfilia",
	"Ostia Parmense",
	"Palesio",
	"Paltrone Samoggia",
	"Parma Ovest",
	"Parma Ponte Nuovo",
	"Parma Ponte Verdi",
	"Parma S. Siro",
	"Parma cassa invaso CAE",
	"Piacenza",
	"Pianello Val Tidone idro",
	"Pianoro",
	"Pieve Cesato",
	"Pievepelago idro",
	"Pioppa",
	"Pizzocalvo",
	"Polesella SIAP",
	"Ponte Alto",
	"Ponte Bacchello",
	"Ponte Bastia",
	"Ponte Becca Po",
	"Ponte Braldo",
	"Ponte Calanca",
	"Ponte Cavola",
	"Ponte Dattaro",
	"Ponte Dolo",
	"Ponte Felisio",
	"Ponte Lamberti",
	"Ponte Locatello",
	"Ponte Messa",
	"Ponte Motta",
	"Ponte Nibbiano",
	"Ponte Nibbiano Tidoncello",
	"Ponte Ronca",
	"Ponte Samone",
	"Ponte Sant'Ambrogio",
	"Ponte Uso",
	"Ponte Val di Sasso",
	"Ponte Valenza Po",
	"Ponte Veggia",
	"Ponte Verucchio",
	"Ponte Vico",
	"Ponte degli Alpini",
	"Ponte dell'Olio",
	"Ponteceno",
	"Pontelagoscuro",
	"Pontelagoscuro idrometro Boicelli",
	"Pontenure",
	"Porretta Terme",
	"Portonovo",
	"Pracchia",
	"Pradella",
	"Puianello",
	"Quarto",
	"Ramiola",
	"Rasponi",
	"Ravone",
	"Ravone Via del Chiu",
	"Reda",
	"Rimini Ausa",
	"Rimini SS16",
	"Rivalta RA",
	"Rivalta RE",
	"Rivergaro",
	"Rocca San Casciano",
	"Ronco",
	"Rossenna",
	"Rottofreno",
	"Rubiera SS9",
	"Rubiera Tresinaro",
	"Rubiera casse monte",
	"Rubiera casse valle",
	"S. Agata",
	"S. Antonio",
	"S. Bartolo",
	"S. Bernardino",
	"S. Carlo",
	"S. Cesario SIAP",
	"S. Donnino",
	"S. Ilario d'Enza",
	"S. Marco",
	"S. Maria Nova",
	"S. Ruffillo Savena",
	"S. Secondo",
	"S. Sofia",
	"S. Vittoria",
	"S. Zaccaria",
	"S. Zeno",
	"Saletto",
	"Saliceto",
	"Salsomaggiore sul Ghiara",
	"Salsominore",
	"Santarcangelo di Romagna",
	"Sarna",
	"Sasso Marconi",
	"Savignano",
	"Savio",
	"Secondo Salto",
	"Selvanizza",
	"Sermide",
	"Sesto Imolese",
	"Silla",
	"Sorbolo",
	"Sostegno Reno",
	"Spessa Po",
	"Spilamberto",
	"Strada Casale",
	"Suviana",
	"Tebano",
	"Teodorano",
	"Toccalmatto",
	"Tornolo",
	"Trebbia Valsigiara",
	"Veggiola",
	"Vergato",
	"Vetto",
	"Vignola SIAP",
	"Vigoleno",
	"Vigolo Marchese",
	"Villanova",
}

// IsKnownStation reports whether name is exactly one of KnownStations.
func IsKnownStation(name string) bool {
	i := sort.SearchStrings(KnownStations, name)
	return i < len(KnownStations) && KnownStations[i] == name
}
