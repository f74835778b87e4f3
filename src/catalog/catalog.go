// Package catalog holds the static reference data for instruments listed on
// the Macedonian Stock Exchange.
package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Entry describes one listed instrument.
type Entry struct {
	Symbol    string
	Name      string
	Sector    string
	BasePrice float64 // MKD, reference level for synthetic data; 0 when unknown
}

// Sector names as published by MSE.
const (
	SectorBanking     = "банкарство"
	SectorIndustry    = "индустрија"
	SectorServices    = "услуги"
	SectorTrade       = "трговија"
	SectorConstr      = "градежништво"
	SectorHospitality = "угостителство"
	SectorAgri        = "земјоделство"
	SectorInsurance   = "осигурување"
	SectorTelecom     = "телекомуникации"
	SectorBonds       = "обврзници"
)

var entries = []Entry{
	{"ADING", "Адинг Скопје", SectorTrade, 1500},
	{"ALK", "Алкалоид Скопје", SectorIndustry, 25900},
	{"DSS", "ДС Смитх АД Скопје", SectorIndustry, 2800},
	{"FAKOM", "Факом Скопје", SectorTrade, 1200},
	{"FERSP", "Фершпед Скопје", SectorServices, 1100},
	{"FUST", "Фустеларко Борец Битола", SectorIndustry, 900},
	{"FZC11", "ФЗЦ 11 Октомври Куманово", SectorIndustry, 800},
	{"GRNT", "Гранит Скопје", SectorConstr, 4800},
	{"HMOH", "Хотели Метропол Охрид", SectorHospitality, 2600},
	{"KARPOS", "Карпош Скопје", SectorTrade, 1100},
	{"KMB", "Комерцијална банка Скопје", SectorBanking, 27200},
	{"MERM", "Мермерен комбинат Прилеп", SectorIndustry, 650},
	{"MKSP", "Макошпед Скопје", SectorServices, 950},
	{"MKST", "Макстил Скопје", SectorIndustry, 3400},
	{"MOS", "Македонија осигурување АД Скопје - Виена Иншуренс Груп", SectorInsurance, 18000},
	{"MPT", "Макпетрол Скопје", SectorTrade, 116900},
	{"MTUR", "Македонијатурист Скопје", SectorHospitality, 2200},
	{"NLB", "НЛБ Банка АД Скопје", SectorBanking, 3200},
	{"OKDA", "Оилко КДА Скопје", SectorTrade, 1300},
	{"OKTA", "ОКТА Скопје", SectorIndustry, 14500},
	{"PEKA", "Пекабеско Скопје", SectorIndustry, 1800},
	{"POPOV", "Попова Кула Демир Капија", SectorIndustry, 2200},
	{"PRILEP", "Прилепска Пиварница Прилеп", SectorIndustry, 3500},
	{"RADE", "Раде Кончар Скопје", SectorIndustry, 950},
	{"REPL", "Реплек Скопје", SectorTrade, 16000},
	{"RZTEK", "РЖ Техничка контрола Скопје", SectorServices, 650},
	{"RZUS", "РЖ Услуги Скопје", SectorServices, 45},
	{"STB", "Стопанска банка Скопје", SectorBanking, 2800},
	{"TEKNO", "Технокомерц Скопје", SectorTrade, 1400},
	{"TEL", "Македонски Телеком Скопје", SectorTelecom, 440},
	{"TETO", "Тетекс Тетово", SectorIndustry, 1600},
	{"TNB", "Тутунски комбинат Прилеп", SectorIndustry, 57800},
	{"TRGOT", "Трготекстил малопродажба Скопје", SectorTrade, 850},
	{"TTK", "ТТК Банка АД Скопје", SectorBanking, 4200},
	{"UNI", "Универзална Инвестициона Банка Скопје", SectorBanking, 2100},
	{"USJE", "ТИТАН УСЈЕ АД Скопје", SectorIndustry, 43600},
	{"VABT", "Вабтек МЗТ Скопје", SectorIndustry, 750},
	{"VETEKS", "Ветекс Велес", SectorIndustry, 1200},
	{"VITA", "Витаминка Прилеп", SectorIndustry, 12200},
	{"VVT", "ВВ Тиквеш АД Кавадарци", SectorIndustry, 3200},
	{"ZAS", "ЖАС Скопје", SectorIndustry, 980},
	{"ZITO", "Жито Лукс Скопје", SectorIndustry, 8900},
	{"ZKPEL", "ЗК Пелагонија Битола", SectorAgri, 1200},

	// Listed without a reference price.
	{"AUMK", "Ауремарк Скопје", "", 0},
	{"KBP", "Комерцијална банка Скопје (Преф)", SectorBanking, 0},
	{"SBT", "Стопанска банка Битола", SectorBanking, 0},
	{"STBP", "Стопанска банка Скопје (Преф)", SectorBanking, 0},
	{"STIL", "Стил Скопје", "", 0},
	{"FERS", "Ферс Скопје", "", 0},
	{"PPIV", "ППИВ Скопје", "", 0},
	{"TIGA", "Тига Скопје", "", 0},
	{"RZLE", "РЖ Лесновска Скопје", SectorServices, 0},
	{"HLKB", "Халк Банка АД Скопје", SectorBanking, 0},
	{"HLKO", "Халк Осигурување АД Скопје", SectorInsurance, 0},
	{"PRIM", "Прим Осигурување АД Скопје", SectorInsurance, 0},
	{"ZRNM", "Железница на Македонија АД Скопје", SectorServices, 0},
	{"MKKU", "МК Кујув АД Скопје", "", 0},
	{"FKAP", "ФК Апо АД Скопје", "", 0},
	{"RMDEN21", "РМ Денари 2021", SectorBonds, 0},
}

var bySymbol map[string]Entry

func init() {
	bySymbol = make(map[string]Entry, len(entries))
	for _, e := range entries {
		bySymbol[e.Symbol] = e
	}
}

// Lookup returns the catalog entry for symbol.
func Lookup(symbol string) (Entry, bool) {
	e, ok := bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	return e, ok
}

// CompanyName returns the listed name, or "{symbol} Company" when unknown.
func CompanyName(symbol string) string {
	if e, ok := Lookup(symbol); ok {
		return e.Name
	}
	return fmt.Sprintf("%s Company", strings.ToUpper(strings.TrimSpace(symbol)))
}

// Universe returns every known symbol sorted ascending.
func Universe() []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Symbol)
	}
	sort.Strings(out)
	return out
}

// Priced returns the entries that carry a reference price, sorted by symbol.
func Priced() []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.BasePrice > 0 {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// ISIN builds the placeholder identifier shown on detail pages.
func ISIN(symbol string) string {
	return fmt.Sprintf("MK%s101011", strings.ToUpper(symbol))
}
