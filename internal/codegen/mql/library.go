package mql

import (
	"github.com/rxtech-lab/argo-codegen/internal/codegen/render"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

// Window helpers scan period bars of a series-ordered array starting at index
// and moving into the past. Fewer bars are used when history is short.
const windowPreamble = `int n = MathMin(period, bars - index);
if (n <= 0)
	return 0.0;
`

var aggregationBodies = map[template.AggregationMethod]string{
	template.MethodSMA: windowPreamble + `double sum = 0.0;
for (int k = 0; k < n; k++)
	sum += src[index + k];
return sum / n;`,
	template.MethodEMA:  recursiveBody("2.0 / (period + 1.0)"),
	template.MethodRMA:  recursiveBody("1.0 / period"),
	template.MethodSMMA: recursiveBody("1.0 / period"),
	template.MethodLWMA: windowPreamble + `double sum = 0.0;
double weights = 0.0;
for (int k = 0; k < n; k++)
{
	double w = n - k;
	sum += src[index + k] * w;
	weights += w;
}
return sum / weights;`,
	template.MethodSum: windowPreamble + `double sum = 0.0;
for (int k = 0; k < n; k++)
	sum += src[index + k];
return sum;`,
	template.MethodStdDev: windowPreamble + `double mean = 0.0;
for (int k = 0; k < n; k++)
	mean += src[index + k];
mean /= n;
double variance = 0.0;
for (int k = 0; k < n; k++)
	variance += (src[index + k] - mean) * (src[index + k] - mean);
return MathSqrt(variance / n);`,
	template.MethodMax: windowPreamble + `double value = src[index];
for (int k = 1; k < n; k++)
	value = MathMax(value, src[index + k]);
return value;`,
	template.MethodMin: windowPreamble + `double value = src[index];
for (int k = 1; k < n; k++)
	value = MathMin(value, src[index + k]);
return value;`,
	template.MethodMedian: windowPreamble + `double window[];
ArrayResize(window, n);
for (int k = 0; k < n; k++)
	window[k] = src[index + k];
ArraySort(window);
if (n % 2 == 1)
	return window[n / 2];
return (window[n / 2 - 1] + window[n / 2]) / 2.0;`,
	template.MethodMAD: windowPreamble + `double mean = 0.0;
for (int k = 0; k < n; k++)
	mean += src[index + k];
mean /= n;
double deviation = 0.0;
for (int k = 0; k < n; k++)
	deviation += MathAbs(src[index + k] - mean);
return deviation / n;`,
}

// recursiveBody is a single-pass smoothing seeded by the oldest bar in the window.
func recursiveBody(alpha string) string {
	return windowPreamble + `double alpha = ` + alpha + `;
double value = src[index + n - 1];
for (int k = n - 2; k >= 0; k--)
	value = alpha * src[index + k] + (1.0 - alpha) * value;
return value;`
}

func helperName(m template.AggregationMethod) string {
	return "Agg" + render.Pascal(string(m))
}

func aggregationHelper(m template.AggregationMethod) Function {
	return Function{
		Return: "double",
		Name:   helperName(m),
		Params: []Param{
			{Type: "double", Name: "src", Array: true, Const: true},
			{Type: "int", Name: "index"},
			{Type: "int", Name: "period"},
			{Type: "int", Name: "bars"},
		},
		Body:    []Stmt{Verbatim{Text: aggregationBodies[m]}},
		Comment: string(m) + " over the period bars ending at index",
	}
}

func tradingFunctions() []Function {
	return []Function{
		{
			Return:  "bool",
			Name:    "InTradingWindow",
			Comment: "equal hours trade around the clock",
			Body: []Stmt{Verbatim{Text: `if (InpStartHour == InpEndHour)
	return true;
MqlDateTime now;
TimeCurrent(now);
if (InpStartHour < InpEndHour)
	return now.hour >= InpStartHour && now.hour < InpEndHour;
return now.hour >= InpStartHour || now.hour < InpEndHour;`}},
		},
		{
			Return: "bool",
			Name:   "HasPosition",
			Params: []Param{{Type: "ENUM_POSITION_TYPE", Name: "type"}},
			Body: []Stmt{Verbatim{Text: `for (int k = PositionsTotal() - 1; k >= 0; k--)
{
	ulong ticket = PositionGetTicket(k);
	if (ticket == 0)
		continue;
	if (PositionGetString(POSITION_SYMBOL) == g_symbol && PositionGetInteger(POSITION_MAGIC) == InpMagic && PositionGetInteger(POSITION_TYPE) == type)
		return true;
}
return false;`}},
		},
		{
			Return: "void",
			Name:   "ClosePositions",
			Params: []Param{{Type: "ENUM_POSITION_TYPE", Name: "type"}},
			Body: []Stmt{Verbatim{Text: `for (int k = PositionsTotal() - 1; k >= 0; k--)
{
	ulong ticket = PositionGetTicket(k);
	if (ticket == 0)
		continue;
	if (PositionGetString(POSITION_SYMBOL) == g_symbol && PositionGetInteger(POSITION_MAGIC) == InpMagic && PositionGetInteger(POSITION_TYPE) == type)
		g_trade.PositionClose(ticket);
}`}},
		},
		{
			Return:  "void",
			Name:    "OpenPosition",
			Params:  []Param{{Type: "ENUM_ORDER_TYPE", Name: "type"}},
			Comment: "stop loss and take profit are in points; zero disables them",
			Body: []Stmt{Verbatim{Text: `double point = SymbolInfoDouble(g_symbol, SYMBOL_POINT);
if (type == ORDER_TYPE_BUY)
{
	double price = SymbolInfoDouble(g_symbol, SYMBOL_ASK);
	double sl = InpStopLoss > 0 ? price - InpStopLoss * point : 0.0;
	double tp = InpTakeProfit > 0 ? price + InpTakeProfit * point : 0.0;
	g_trade.Buy(InpLots, g_symbol, price, sl, tp);
	return;
}
double price = SymbolInfoDouble(g_symbol, SYMBOL_BID);
double sl = InpStopLoss > 0 ? price + InpStopLoss * point : 0.0;
double tp = InpTakeProfit > 0 ? price - InpTakeProfit * point : 0.0;
g_trade.Sell(InpLots, g_symbol, price, sl, tp);`}},
		},
	}
}
